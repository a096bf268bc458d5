package api

import (
	"fmt"
	"net/http"
	"strings"
)

// AddNavHrefs adds "previous" and "next" page links to payload. base is the
// service root URL and resource the collection path under /v1.
func AddNavHrefs(base, resource string, offset, limit, total int, payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if limit <= 0 {
		return payload
	}

	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		payload["previous"] = pageHref(base, resource, prev, limit)
	}
	if offset < total-limit {
		payload["next"] = pageHref(base, resource, offset+limit, limit)
	}
	return payload
}

func pageHref(base, resource string, offset, limit int) string {
	return fmt.Sprintf("%s/v1/%s?limit=%d&offset=%d", strings.TrimRight(base, "/"), resource, limit, offset)
}

// requestBase derives the service root URL from the request
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
