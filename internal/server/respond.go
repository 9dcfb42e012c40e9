package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/astadocs/internal/common"
)

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps err onto an HTTP status. Internal failures are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatus(err)
	body := errorBody{OK: false, Error: err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Error = appErr.Message
	} else if st, ok := status.FromError(err); ok {
		body.Error = st.Message()
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("http.error",
			"request_id", common.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		if code == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	writeJSON(w, code, body)
}

// flatten returns v as a JSON object with extra keys added.
func flatten(v any, extra map[string]any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, val := range extra {
		out[k] = val
	}
	return out, nil
}
