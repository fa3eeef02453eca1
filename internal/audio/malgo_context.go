//go:build cgo

package audio

import (
	"log/slog"

	"github.com/gen2brain/malgo"
)

// malgoContext owns a miniaudio context for the lifetime of one device
type malgoContext struct {
	ctx *malgo.AllocatedContext
}

// newMalgoContext initializes miniaudio. backends restricts and orders the
// native backends tried; nil lets miniaudio choose.
func newMalgoContext(backends []malgo.Backend) (*malgoContext, error) {
	slog.Debug("initializing malgo context", "preferred_backends", len(backends))

	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

// Close releases the context. Closing twice is a no-op.
func (c *malgoContext) Close() error {
	if c.ctx == nil {
		return nil
	}

	// malgo requires both Uninit and Free
	if err := c.ctx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
		return err
	}
	c.ctx.Free()
	c.ctx = nil
	return nil
}
