package ctx

import (
	convCfg "github.com/sofmon/posgate/lib/cfg"
)

type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
)

// getEnv falls back to production when the 'environment' key is missing, so
// test-only behaviour (debug logs, the Time-Now header) stays off by default.
func getEnv() Environment {
	env, err := convCfg.String(convCfg.ConfigKeyEnvironment)
	if err != nil || env == "" {
		return EnvironmentProduction
	}
	return Environment(env)
}

func (ctx Context) Environment() Environment {
	env, _ := ctx.Value(contextKeyEnv).(Environment)
	return env
}

func (ctx Context) IsProdEnv() bool {
	return ctx.Environment() == EnvironmentProduction
}
