package storage

import (
	"fmt"
	"sync"

	convCtx "github.com/sofmon/posgate/lib/ctx"
)

// Provider is an object store the route table can be kept in.
type Provider interface {
	Name() string
	Load(ctx convCtx.Context, path string) (data []byte, err error)
}

// ProviderFactory opens bucket with provider specific credentials; nil
// credentials select the provider's default (e.g. application default
// credentials on GCP).
type ProviderFactory func(ctx convCtx.Context, bucket string, credentials []byte) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

func NewProvider(ctx convCtx.Context, name string, bucket string, credentials []byte) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage provider: %s", name)
	}
	return factory(ctx, bucket, credentials)
}
