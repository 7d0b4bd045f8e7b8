package ctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	scopeSeparator = " → "
	scopeErrPrefix = "✘ "
)

// WithScope appends scope to the current scope path. The args are key-value
// pairs following the log/slog conventions and are rendered inline, e.g.
// "Manager.Resync {id=42}".
func (ctx Context) WithScope(scope string, args ...any) Context {

	scope = ctx.Scope() + scopeSeparator + scope

	if len(args) > 0 {
		scope += " {" + formatArgs(args) + "}"
	}

	return Context{
		context.WithValue(ctx.Context, contextKeyScope, scope),
	}
}

func (ctx Context) Scope() string {
	scope, _ := ctx.Value(contextKeyScope).(string)
	return scope
}

// Exit prefixes a non-nil *errPtr with the scope path, once. Errors matching
// one of except are returned as they are so callers can still compare them.
func (ctx Context) Exit(errPtr *error, except ...error) {
	if errPtr == nil || *errPtr == nil {
		return
	}
	for _, ex := range except {
		if errors.Is(*errPtr, ex) {
			return
		}
	}

	prefix := scopeErrPrefix + ctx.Scope()
	if !strings.HasPrefix((*errPtr).Error(), prefix) {
		*errPtr = fmt.Errorf("%s: %w", prefix, *errPtr)
	}

	ctx.Logger().Debug("exiting scope", "error", (*errPtr).Error())
}

func formatArgs(args []any) string {
	attrs := slog.Group("", args...).Value.Group()

	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, quoteIfNeeded(a.Key, " \t\r\n=")+"="+quoteIfNeeded(a.Value.String(), " \t\r\n\"="))
	}

	return strings.Join(parts, " ")
}

func quoteIfNeeded(s, special string) string {
	if s != "" && !strings.ContainsAny(s, special) {
		return s
	}
	return strconv.Quote(s)
}
