package ctx

import (
	"context"

	"github.com/google/uuid"
)

type Context struct {
	context.Context
}

type contextKey int

const (
	contextKeyAgent contextKey = iota
	contextKeyEnv
	contextKeyRequest
	contextKeyUser
	contextKeyRoute
	contextKeySession
	contextKeyWorkflow
	contextKeyScope
	contextKeyNow
	contextKeyLogger

	loggerKeyEnv      = "env"
	loggerKeyAgent    = "agent"
	loggerKeyWorkflow = "workflow"
	loggerKeyUser     = "user"
	loggerKeySession  = "session"
	loggerKeyScope    = "scope"
	loggerKeyRoute    = "route"
	loggerKeyNow      = "now"
)

// Agent names the process acting on behalf of users, e.g. "posgate".
type Agent string

func New(agent Agent) (ctx Context) {
	return WrapContext(context.Background(), agent)
}

func WrapContext(parent context.Context, agent Agent) (ctx Context) {

	env := getEnv()                        // determine the environment
	workflow := Workflow(uuid.NewString()) // generate a new workflow ID
	scope := string(agent)                 // initial scope is the agent name

	ctx.Context = context.WithValue(parent, contextKeyEnv, env)
	ctx.Context = context.WithValue(ctx.Context, contextKeyAgent, agent)
	ctx.Context = context.WithValue(ctx.Context, contextKeyWorkflow, workflow)
	ctx.Context = context.WithValue(ctx.Context, contextKeyScope, scope)

	ctx.Context = context.WithValue(ctx.Context, contextKeyLogger,
		defaultLogger().
			With(
				loggerKeyEnv, env,
				loggerKeyAgent, agent,
				loggerKeyWorkflow, workflow,
				loggerKeyScope, scope,
			),
	)

	return
}

func (ctx Context) Agent() Agent {
	obj := ctx.Value(contextKeyAgent)
	if obj == nil {
		return ""
	}
	return obj.(Agent)
}
