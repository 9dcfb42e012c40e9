package constants

import "strings"

// Payload formats understood by the text extraction layer.
const (
	FormatPDF   = "PDF"
	FormatImage = "IMAGE"
	FormatHTML  = "HTML"
	FormatText  = "TXT"
)

// FileTypes holds the formats recorded on processing jobs.
var FileTypes = []string{FormatPDF, FormatImage, FormatHTML, FormatText}

// AllowedExtensions holds the file extensions accepted for listing and proposal documents.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"html": {},
	"htm":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt maps a normalized extension to a payload format.
func FormatForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "jpg", "jpeg", "png", "tif", "tiff":
		return FormatImage
	case "html", "htm":
		return FormatHTML
	case "txt":
		return FormatText
	}
	return ""
}
