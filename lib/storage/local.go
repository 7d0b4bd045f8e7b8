package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	convCtx "github.com/sofmon/posgate/lib/ctx"
)

func init() {
	RegisterProvider(ProviderLocal, newLocalProvider)
}

// localProvider keeps objects as files below a root folder; the bucket is
// the folder path and credentials are ignored.
type localProvider struct {
	root string
}

func newLocalProvider(ctx convCtx.Context, bucket string, credentials []byte) (Provider, error) {
	fi, err := os.Stat(bucket)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, errors.New("local storage bucket must be a folder: " + bucket)
	}
	return &localProvider{root: bucket}, nil
}

func (p *localProvider) Name() string {
	return ProviderLocal
}

// file maps path below the root; cleaning it as an absolute path keeps ".."
// from escaping the root.
func (p *localProvider) file(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty storage path")
	}
	clean := filepath.Clean("/" + path)
	return filepath.Join(p.root, filepath.FromSlash(clean)), nil
}

func (p *localProvider) Load(ctx convCtx.Context, path string) (data []byte, err error) {
	ctx = ctx.WithScope("localProvider.Load", "path", path)
	defer ctx.Exit(&err)

	file, err := p.file(path)
	if err != nil {
		return
	}
	data, err = os.ReadFile(file)
	return
}
