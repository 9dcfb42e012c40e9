package llm

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxImageBytes is the largest page image attached to a drafting request.
const MaxImageBytes = 8 << 20

// ImageDataURL encodes an image payload as a data URL for vision requests.
// It returns "" when the payload is not an image the provider accepts or is
// too large.
func ImageDataURL(payload []byte, filename string) string {
	if len(payload) == 0 || len(payload) > MaxImageBytes {
		return ""
	}
	mt := imageMIME(payload, filename)
	switch mt {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
	default:
		return ""
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func imageMIME(payload []byte, filename string) string {
	if sniffed := http.DetectContentType(payload); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return strings.SplitN(mt, ";", 2)[0]
	}
	if ext == ".jpg" || ext == ".jpeg" {
		return "image/jpeg"
	}
	return ""
}
