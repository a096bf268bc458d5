package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestProjectID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetProjectID(ctx))

	ctx = WithProjectID(ctx, "acme")
	assert.Equal(t, "acme", GetProjectID(ctx))
}

func TestKeysDoNotCollideWithPlainStrings(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "plain")
	assert.Empty(t, GetRequestID(ctx))
}
