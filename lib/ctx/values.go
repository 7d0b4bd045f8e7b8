package ctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionID string

// with stores value under key and tags every following log record with it.
func (ctx Context) with(key contextKey, value any, logKey string) Context {
	return Context{
		context.WithValue(ctx.Context, key, value),
	}.WithLogger(
		ctx.Logger().With(logKey, value),
	)
}

func (ctx Context) WithRoute(path string) Context {
	return ctx.with(contextKeyRoute, path, loggerKeyRoute)
}

// Route is the request path being navigated to.
func (ctx Context) Route() string {
	route, _ := ctx.Value(contextKeyRoute).(string)
	return route
}

func (ctx Context) WithSession(id SessionID) Context {
	return ctx.with(contextKeySession, id, loggerKeySession)
}

func (ctx Context) Session() SessionID {
	id, _ := ctx.Value(contextKeySession).(SessionID)
	return id
}

func (ctx Context) WithUser(username string) Context {
	return ctx.with(contextKeyUser, username, loggerKeyUser)
}

// User is the username of the session being served, if any.
func (ctx Context) User() string {
	user, _ := ctx.Value(contextKeyUser).(string)
	return user
}

func (ctx Context) WithNewWorkflow() Context {
	return ctx.WithWorkflow(Workflow(uuid.NewString()))
}

func (ctx Context) WithWorkflow(workflow Workflow) Context {
	return ctx.with(contextKeyWorkflow, workflow, loggerKeyWorkflow)
}

func (ctx Context) Workflow() Workflow {
	workflow, _ := ctx.Value(contextKeyWorkflow).(Workflow)
	return workflow
}

// WithNow pins the clock, e.g. from the Time-Now header outside production.
func (ctx Context) WithNow(now time.Time) Context {
	return ctx.with(contextKeyNow, now, loggerKeyNow)
}

func (ctx Context) Now() time.Time {
	if now, ok := ctx.Value(contextKeyNow).(time.Time); ok {
		return now
	}
	return time.Now().UTC()
}
