package domain

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"429 is rate limited", 429, ErrUpstreamRateLimited},
		{"500 is unavailable", 500, ErrUpstreamUnavailable},
		{"503 is unavailable", 503, ErrUpstreamUnavailable},
		{"404 is malformed", 404, ErrMalformedResponse},
		{"302 is malformed", 302, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyStatus(tt.status), tt.want)
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	t.Run("deadline is timeout", func(t *testing.T) {
		err := ClassifyTransport(context.DeadlineExceeded)
		assert.ErrorIs(t, err, ErrUpstreamTimeout)
	})

	t.Run("wrapped deadline is timeout", func(t *testing.T) {
		wrapped := errors.Join(errors.New("do request"), context.DeadlineExceeded)
		assert.ErrorIs(t, ClassifyTransport(wrapped), ErrUpstreamTimeout)
	})

	t.Run("net timeout is timeout", func(t *testing.T) {
		err := ClassifyTransport(&net.DNSError{Err: "i/o timeout", IsTimeout: true})
		assert.ErrorIs(t, err, ErrUpstreamTimeout)
	})

	t.Run("connection failure is unavailable", func(t *testing.T) {
		err := ClassifyTransport(errors.New("connection refused"))
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}
