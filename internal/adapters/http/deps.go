package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthwork/internal/adapters/valkey"
	"github.com/samirrijal/earthwork/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Earthwork *usecases.EarthworkService
	NATS      *nats.Conn   // optional; enables /ws and the readiness check
	Cache     *valkey.Cache // optional
	// RequestTimeout bounds each calculation request. Zero means 15s.
	RequestTimeout time.Duration
	Version        string
}

func (d *Dependencies) timeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}
