package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

const maxBodyBytes = 64 << 10

var errUnsupportedBody = errors.New("unsupported content type")

// decodeBody reads a JSON body, or a form body through form when the client
// posted one. It reports whether the body came from a form.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, form func(get func(string) string)) (bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json", "":
		dec := json.NewDecoder(r.Body)
		return false, dec.Decode(dst)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return true, err
		}
		form(r.PostForm.Get)
		return true, nil
	default:
		return false, errUnsupportedBody
	}
}

// safeCallback accepts only same-origin relative paths.
func safeCallback(u string) bool {
	if len(u) == 0 || u[0] != '/' {
		return false
	}
	return len(u) == 1 || (u[1] != '/' && u[1] != '\\')
}
