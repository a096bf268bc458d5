package api

import (
	"crypto/tls"
	"fmt"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddNavHrefs(t *testing.T) {
	tests := []struct {
		name                   string
		offset, limit, total   int
		expectPrev, expectNext string
	}{
		{name: "single page", offset: 0, limit: 10, total: 3},
		{name: "first of many", offset: 0, limit: 10, total: 25, expectNext: "http://h/v1/project-quotas?limit=10&offset=10"},
		{
			name: "middle", offset: 10, limit: 10, total: 25,
			expectPrev: "http://h/v1/project-quotas?limit=10&offset=0",
			expectNext: "http://h/v1/project-quotas?limit=10&offset=20",
		},
		{name: "last", offset: 20, limit: 10, total: 25, expectPrev: "http://h/v1/project-quotas?limit=10&offset=10"},
		{name: "previous clamps to zero", offset: 3, limit: 10, total: 5, expectPrev: "http://h/v1/project-quotas?limit=10&offset=0"},
		{name: "past the end", offset: 40, limit: 10, total: 25, expectPrev: "http://h/v1/project-quotas?limit=10&offset=30"},
		{name: "empty", offset: 0, limit: 10, total: 0},
		{
			name: "offset at max int", offset: math.MaxInt, limit: 100, total: 25,
			expectPrev: fmt.Sprintf("http://h/v1/project-quotas?limit=100&offset=%d", math.MaxInt-100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := AddNavHrefs("http://h/", "project-quotas", tt.offset, tt.limit, tt.total, map[string]interface{}{"k": "v"})

			assert.Equal(t, "v", payload["k"])
			if tt.expectPrev == "" {
				assert.NotContains(t, payload, "previous")
			} else {
				assert.Equal(t, tt.expectPrev, payload["previous"])
			}
			if tt.expectNext == "" {
				assert.NotContains(t, payload, "next")
			} else {
				assert.Equal(t, tt.expectNext, payload["next"])
			}
		})
	}
}

func TestAddNavHrefs_NilPayload(t *testing.T) {
	payload := AddNavHrefs("http://h", "project-quotas", 0, 1, 2, nil)
	assert.Equal(t, "http://h/v1/project-quotas?limit=1&offset=1", payload["next"])
}

func TestRequestBase(t *testing.T) {
	req := httptest.NewRequest("GET", "http://quota.example:9311/v1/project-quotas", nil)
	assert.Equal(t, "http://quota.example:9311", requestBase(req))

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://quota.example:9311", requestBase(req))

	req.TLS = nil
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://quota.example:9311", requestBase(req))
}
