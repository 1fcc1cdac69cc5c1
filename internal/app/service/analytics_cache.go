package service

import (
	"context"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
)

// analyticsKeyPrefix prefixes every cached report key.
const analyticsKeyPrefix = "analytics:"

const invalidateTimeout = 2 * time.Second

// ReportCache stores serialized analytics results. A miss returns false
// without error.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// NoopReportCache never hits. It is used when Redis is not configured.
type NoopReportCache struct{}

func (NoopReportCache) GetJSON(context.Context, string, interface{}) (bool, error) {
	return false, nil
}

func (NoopReportCache) SetJSON(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (NoopReportCache) DeletePrefix(context.Context, string) error {
	return nil
}

// ReportInvalidator drops cached reports whenever a sale change commits.
type ReportInvalidator struct {
	cache ReportCache
}

func NewReportInvalidator(cache ReportCache) *ReportInvalidator {
	return &ReportInvalidator{cache: cache}
}

func (i *ReportInvalidator) Publish(event model.SaleEvent) {
	if i.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	if err := i.cache.DeletePrefix(ctx, analyticsKeyPrefix); err != nil {
		logger.Warn("Analytics cache invalidation failed", map[string]interface{}{
			"sale_id": event.SaleID,
			"event":   event.Type,
			"error":   err.Error(),
		})
	}
}

// SalePublishers fans one event out to every publisher in order.
type SalePublishers []SaleEventPublisher

func (p SalePublishers) Publish(event model.SaleEvent) {
	for _, publisher := range p {
		if publisher != nil {
			publisher.Publish(event)
		}
	}
}
