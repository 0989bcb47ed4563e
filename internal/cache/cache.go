package cache

import (
	"context"
	"time"
)

// PartnerCache holds raw JSON payloads fetched from the partner API so
// repeated list/detail reads do not hit the upstream every time.
type PartnerCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type NoopPartnerCache struct{}

func (NoopPartnerCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopPartnerCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (NoopPartnerCache) Delete(_ context.Context, _ ...string) error {
	return nil
}
