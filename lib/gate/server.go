package gate

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strings"

	convAuth "github.com/sofmon/posgate/lib/auth"
	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

const (
	DefaultListenAddr = ":8080"
)

type server struct {
	httpServer *http.Server
}

func NewServer(ctx convCtx.Context, addr string, gate *Gate) *server {

	if addr == "" {
		addr = DefaultListenAddr
	}

	return &server{
		&http.Server{
			Addr:    addr,
			Handler: gate,
		},
	}
}

// EnableCallsLogging dumps every request and response the gate answers itself.
// Calls passed on to the front-end are not dumped.
func (srv *server) EnableCallsLogging() {
	if g, ok := srv.httpServer.Handler.(*Gate); ok {
		g.logCalls = true
	}
}

// ListenAndServe serves TLS when both 'communication_certificate' and
// 'communication_key' are configured, plain HTTP otherwise.
func (srv *server) ListenAndServe() (err error) {
	if convCfg.Exists(convCfg.ConfigKeyCertificate) && convCfg.Exists(convCfg.ConfigKeyCertificateKey) {
		return srv.httpServer.ListenAndServeTLS(
			convCfg.FilePath(convCfg.ConfigKeyCertificate),
			convCfg.FilePath(convCfg.ConfigKeyCertificateKey),
		)
	}
	return srv.httpServer.ListenAndServe()
}

func (srv *server) Shutdown(ctx convCtx.Context) (err error) {
	return srv.httpServer.Shutdown(ctx)
}

func logCall(ctx convCtx.Context, w http.ResponseWriter, r *http.Request, handle func(w http.ResponseWriter, r *http.Request)) {

	logger := ctx.Logger()
	if logger == nil {
		handle(w, r)
		return
	}

	rec := httptest.NewRecorder()

	// the token and the session cookie must never reach the logs in full
	authHeader := r.Header.Get(convAuth.HttpHeaderAuthorization)
	if authHeader != "" {
		l := len(authHeader) - 10
		if l < 0 {
			l = len(authHeader)
		}
		r.Header.Set(convAuth.HttpHeaderAuthorization, "..."+authHeader[l:])
	}
	cookieHeader := r.Header.Get("Cookie")
	if cookieHeader != "" {
		r.Header.Set("Cookie", "...")
	}

	// credentials are posted to the sign-in endpoint
	reqDump, err := httputil.DumpRequest(r, r.URL.Path != PathSignIn && isLoggableContent(r.Header.Get("Content-Type")))
	reqHeaderAttrs := headersToAttrs(r.Header)

	if authHeader != "" {
		r.Header.Set(convAuth.HttpHeaderAuthorization, authHeader)
	}
	if cookieHeader != "" {
		r.Header.Set("Cookie", cookieHeader)
	}

	if err != nil {
		logger.Warn("error dumping request for logging", "error", err)
		handle(w, r)
		return
	}

	handle(rec, r)

	res := rec.Result()
	if res.Header.Get("Set-Cookie") != "" {
		res.Header.Set("Set-Cookie", "...")
	}

	// the sign-in response carries the token
	resDump, err := httputil.DumpResponse(res, r.URL.Path != PathSignIn && isLoggableContent(res.Header.Get("Content-Type")))
	if err != nil {
		logger.Warn("error dumping response for logging", "error", err)
	}

	for k, v := range rec.Header() {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}
	w.WriteHeader(rec.Code)
	if _, err := w.Write(rec.Body.Bytes()); err != nil {
		logger.Warn("error writing response body after logging", "error", err)
		return
	}

	logger.
		With(
			"request", string(reqDump),
			"response", string(resDump),
			slog.Group("headers",
				slog.Group("request", reqHeaderAttrs...),
				slog.Group("response", headersToAttrs(res.Header)...),
			),
		).
		Info("gate call")
}

func isLoggableContent(contentType string) bool {
	return contentType == "application/json" ||
		contentType == "text/plain" ||
		contentType == "text/html"
}

func headersToAttrs(headers http.Header) []any {
	var attrs []any
	for name, values := range headers {
		attrs = append(attrs, name, strings.Join(values, ", "))
	}
	return attrs
}
