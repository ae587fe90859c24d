// Package idempotency generates Idempotency-Key header values for write
// operations.
package idempotency

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Header is the request header carrying the key.
const Header = "Idempotency-Key"

// Prefix marks keys minted by the console.
const Prefix = "ui-"

// NewKey returns a fresh key. Keys are never reused.
func NewKey() string {
	return Prefix + uuid.NewString()
}

// Generator mints keys only while enabled. The toggle may be flipped from
// any goroutine.
type Generator struct {
	enabled atomic.Bool
}

// NewGenerator creates a generator with the given initial toggle.
func NewGenerator(enabled bool) *Generator {
	g := &Generator{}
	g.enabled.Store(enabled)
	return g
}

// SetEnabled flips automatic key generation.
func (g *Generator) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

// Enabled reports whether keys are being generated.
func (g *Generator) Enabled() bool {
	return g.enabled.Load()
}

// Next returns a new key, or false when generation is disabled and the
// header must be omitted.
func (g *Generator) Next() (string, bool) {
	if !g.Enabled() {
		return "", false
	}
	return NewKey(), true
}
