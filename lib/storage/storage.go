package storage

import (
	"errors"
	"strings"

	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

const (
	ProviderGCS   = "gcs"
	ProviderLocal = "local"
)

// Storage reads objects through a Provider, adding scope and error wrapping.
type Storage struct {
	provider Provider
}

// New opens the storage holding the route table: "routes_bucket" names the
// bucket (a folder for the local provider), "routes_provider" the provider
// ("gcs" by default) and the optional "routes_credentials" its credentials.
func New(ctx convCtx.Context) (s *Storage, err error) {
	ctx = ctx.WithScope("storage.New")
	defer ctx.Exit(&err)

	bucket, err := convCfg.String(convCfg.ConfigKeyRoutesBucket)
	if err != nil {
		return
	}

	credentials, err := convCfg.Bytes(convCfg.ConfigKeyRoutesCredentials)
	if errors.Is(err, convCfg.ErrNotFound) {
		credentials, err = nil, nil
	}
	if err != nil {
		return
	}

	return NewWithCredentials(ctx, convCfg.StringOrDefault(convCfg.ConfigKeyRoutesProvider, ProviderGCS), bucket, credentials)
}

func NewWithCredentials(ctx convCtx.Context, providerName, bucket string, credentials []byte) (s *Storage, err error) {
	ctx = ctx.WithScope("storage.NewWithCredentials", "provider", providerName, "bucket", bucket)
	defer ctx.Exit(&err)

	provider, err := NewProvider(ctx, providerName, bucket, credentials)
	if err != nil {
		return
	}

	s = &Storage{provider: provider}
	return
}

// Load retrieves data from the specified path.
func (s *Storage) Load(ctx convCtx.Context, path string) (data []byte, err error) {
	ctx = ctx.WithScope("storage.Load", "path", path)
	defer ctx.Exit(&err)

	data, err = s.provider.Load(ctx, strings.TrimLeft(path, "/"))
	return
}

// Provider returns the underlying provider.
func (s *Storage) Provider() Provider {
	return s.provider
}
