// Package testutil provides small helpers shared by unit tests.
package testutil

import (
	"crypto/rand"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"medvault/internal/crypto"
	"medvault/internal/platform/metrics"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Metrics returns metrics registered against a fresh registry so tests never
// collide on the default one.
func Metrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// FieldCipher returns a cipher with a random key.
func FieldCipher(t *testing.T) *crypto.FieldCipher {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	cipher, err := crypto.NewFieldCipher(key)
	if err != nil {
		t.Fatalf("build test cipher: %v", err)
	}
	return cipher
}
