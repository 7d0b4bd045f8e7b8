package storage

import (
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	convCtx "github.com/sofmon/posgate/lib/ctx"
)

func init() {
	RegisterProvider(ProviderGCS, newGCSProvider)
}

type gcsProvider struct {
	client *storage.Client
	bucket string
}

func newGCSProvider(ctx convCtx.Context, bucket string, credentials []byte) (Provider, error) {
	var opts []option.ClientOption
	if len(credentials) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &gcsProvider{client: client, bucket: bucket}, nil
}

func (p *gcsProvider) Name() string {
	return ProviderGCS
}

func (p *gcsProvider) Load(ctx convCtx.Context, path string) (data []byte, err error) {
	ctx = ctx.WithScope("gcsProvider.Load", "path", path)
	defer ctx.Exit(&err)

	r, err := p.client.Bucket(p.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return
	}
	defer r.Close()

	data, err = io.ReadAll(r)
	return
}
