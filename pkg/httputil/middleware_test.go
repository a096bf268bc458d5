package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("a"), mw("b"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestContentTypeMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := ContentTypeMiddleware(ok)

	tests := []struct {
		name        string
		method      string
		contentType string
		expected    int
	}{
		{name: "json", method: "PUT", contentType: "application/json", expected: http.StatusNoContent},
		{name: "json with charset", method: "POST", contentType: "application/json; charset=utf-8", expected: http.StatusNoContent},
		{name: "no content type", method: "PUT", expected: http.StatusNoContent},
		{name: "form", method: "PUT", contentType: "application/x-www-form-urlencoded", expected: http.StatusUnsupportedMediaType},
		{name: "get ignored", method: "GET", contentType: "text/plain", expected: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestMaxBytesMiddleware(t *testing.T) {
	h := MaxBytesMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			WriteErrorMessage(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("PUT", "/", bytes.NewBufferString("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewStatusRecorder(w)
	assert.Equal(t, http.StatusOK, rec.Status)

	assert.False(t, rec.Wrote)

	rec.WriteHeader(http.StatusForbidden)
	rec.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusForbidden, rec.Status)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, rec.Wrote)
}

func TestStatusRecorder_ImplicitOK(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	_, err := rec.Write([]byte("{}"))
	assert.NoError(t, err)
	assert.True(t, rec.Wrote)
	assert.Equal(t, http.StatusOK, rec.Status)
}
