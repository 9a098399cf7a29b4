package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name      string
		accept    string
		allowXLSX bool
		want      format
	}{
		{"no header", "", false, formatJSON},
		{"json", "application/json", false, formatJSON},
		{"cbor", "application/cbor", false, formatCBOR},
		{"cbor with params", "application/cbor; q=1.0", false, formatCBOR},
		{"first supported wins", "text/html, application/cbor, application/json", false, formatCBOR},
		{"wildcard", "*/*", false, formatJSON},
		{"xlsx allowed", ContentTypeXLSX, true, formatXLSX},
		{"xlsx not allowed", ContentTypeXLSX, false, formatJSON},
		{"xlsx skipped for next", ContentTypeXLSX + ", application/cbor", false, formatCBOR},
		{"garbage", ";;;", false, formatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if got := negotiate(req, tt.allowXLSX); got != tt.want {
				t.Errorf("negotiate(%q) = %d, want %d", tt.accept, got, tt.want)
			}
		})
	}
}

func TestWriteResponse_EncodeFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	writeResponse(w, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if code := decodeError(t, w).Error.Code; code != ErrCodeInternal {
		t.Errorf("expected %s, got %s", ErrCodeInternal, code)
	}
}

func TestWriteResponse_VaryAccept(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	writeResponse(w, req, http.StatusOK, map[string]int{"n": 1})

	if vary := w.Header().Get("Vary"); vary != "Accept" {
		t.Errorf("expected Vary: Accept, got %q", vary)
	}
}
