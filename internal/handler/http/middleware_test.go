package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeJSON(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := ContentTypeJSON(ok)

	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"json body", `{}`, "application/json", http.StatusNoContent},
		{"json with charset", `{}`, "application/json; charset=utf-8", http.StatusNoContent},
		{"no body", "", "", http.StatusNoContent},
		{"text body", `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"missing type", `{}`, "", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodPost, "/", tt.body)
			if tt.body != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.contentType == "" {
				req.Header.Del("Content-Type")
			}
			assert.Equal(t, tt.want, serve(h, req).Code)
		})
	}
}
