package ctx

import (
	"context"
	"net/http"
	"time"

	convAuth "github.com/sofmon/posgate/lib/auth"
)

type Workflow string

const (
	HttpHeaderAuthorization = convAuth.HttpHeaderAuthorization
	HttpHeaderWorkflow      = "Workflow"
	HTTPHeaderTimeNow       = "Time-Now"
)

func (ctx Context) WithRequest(r *http.Request) (res Context) {

	res = Context{
		context.WithValue(
			ctx.Context,
			contextKeyRequest,
			r,
		),
	}

	if wid := r.Header.Get(HttpHeaderWorkflow); wid != "" {
		res = res.WithWorkflow(Workflow(wid))
	} else {
		res = res.WithNewWorkflow()
	}

	res = res.WithRoute(r.URL.Path)

	if !ctx.IsProdEnv() {
		nowStr := r.Header.Get(HTTPHeaderTimeNow)
		if nowStr != "" {
			now, err := time.Parse(time.RFC3339, nowStr)
			if err != nil {
				ctx.Logger().Warn("failed to parse '"+HTTPHeaderTimeNow+"' header", "error", err.Error())
			} else {
				res = res.WithNow(now.UTC())
			}
		}
	}

	return
}

func (ctx Context) Request() (r *http.Request) {
	obj := ctx.Value(contextKeyRequest)
	if obj == nil {
		return
	}
	return obj.(*http.Request)
}
