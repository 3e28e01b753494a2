/*
Package req parses and binds HTTP request bodies.

Binding is strict: unknown fields and trailing content are rejected so a
malformed client payload fails early with a precise error code.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"chatgrid/internal/pkg/errs"
)

// MaxJSONBodySize caps JSON request bodies at 64 KB; chat payloads are small.
const MaxJSONBodySize int64 = 64 << 10

// BindJSON decodes the request body into dst, enforcing content type,
// size limit, unknown-field rejection and single-document bodies.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
