package access

import (
	"encoding/json"

	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
	convStorage "github.com/sofmon/posgate/lib/storage"
)

const (
	RoutesObject = "routes.json"
)

// LoadTable reads a JSON array of routes from storage.
func LoadTable(ctx convCtx.Context, s *convStorage.Storage, path string) (t Table, err error) {
	ctx = ctx.WithScope("access.LoadTable", "path", path)
	defer ctx.Exit(&err)

	data, err := s.Load(ctx, path)
	if err != nil {
		return
	}

	var routes Routes
	err = json.Unmarshal(data, &routes)
	if err != nil {
		return
	}

	t, err = NewTable(routes)
	if err != nil {
		return
	}

	ctx.Logger().Info("route table loaded", "provider", s.Provider().Name(), "routes", t.Len())
	return
}

// LoadTableFromConfig reads the routes from the 'routes' config key.
func LoadTableFromConfig(ctx convCtx.Context) (t Table, err error) {
	ctx = ctx.WithScope("access.LoadTableFromConfig")
	defer ctx.Exit(&err)

	routes, err := convCfg.Object[Routes](convCfg.ConfigKeyRoutes)
	if err != nil {
		return
	}

	t, err = NewTable(routes)
	return
}
