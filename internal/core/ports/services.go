package ports

import (
	"context"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

// EventPublisher publishes calculation events to a message broker.
type EventPublisher interface {
	PublishCalculation(ctx context.Context, event *domain.CalculationEvent) error
}

// EventSubscriber subscribes to calculation events from a message broker.
type EventSubscriber interface {
	SubscribeCalculations(ctx context.Context, handler func(ctx context.Context, event *domain.CalculationEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Calculator runs volume calculations. Implemented by usecases.EarthworkService
// and consumed by the queue worker and the batch workflow.
type Calculator interface {
	Calculate(ctx context.Context, req domain.UniformRequest) (*domain.VolumeResult, error)
	CalculateTIN(ctx context.Context, req domain.SurfaceRequest) (*domain.VolumeResult, error)
}
