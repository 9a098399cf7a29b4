package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/onnwee/collegefit/internal/export"
)

// Media types the API can produce.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
	ContentTypeXLSX = export.XLSXContentType

	contentTypeJSON = ContentTypeJSON + "; charset=utf-8"
)

// format is a negotiated response encoding.
type format int

const (
	formatJSON format = iota
	formatCBOR
	formatXLSX
)

var cborMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// negotiate picks the response format from the Accept header. The first
// listed type the API supports wins; quality values are not weighed. XLSX is
// honoured only where allowXLSX is set. Anything else gets JSON.
func negotiate(r *http.Request, allowXLSX bool) format {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case ContentTypeJSON, "application/*", "*/*":
			return formatJSON
		case ContentTypeCBOR:
			return formatCBOR
		case ContentTypeXLSX:
			if allowXLSX {
				return formatXLSX
			}
		}
	}
	return formatJSON
}

// writeResponse encodes v as JSON or CBOR according to the request's Accept
// header. Encoding happens before the status line is written, so a failure
// still yields a proper 500 envelope.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch negotiate(r, false) {
	case formatCBOR:
		body, err = cborMode.Marshal(v)
		contentType = ContentTypeCBOR
	default:
		var buf bytes.Buffer
		err = json.NewEncoder(&buf).Encode(v)
		body = buf.Bytes()
		contentType = contentTypeJSON
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to encode response")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}
