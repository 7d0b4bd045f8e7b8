package gate

import (
	"encoding/json"
	"errors"
	"net/http"

	convAccess "github.com/sofmon/posgate/lib/access"
	convAuth "github.com/sofmon/posgate/lib/auth"
	convCtx "github.com/sofmon/posgate/lib/ctx"
	convSession "github.com/sofmon/posgate/lib/session"
)

const (
	PathSignIn  = "/auth/sign-in"
	PathSignOut = "/auth/sign-out"
	PathSession = "/auth/session"

	SessionCookie = "posgate_session"
)

// Gate sits in front of the POS front-end. A navigation reaches next only
// when the arbiter allows it for the session named by the cookie.
type Gate struct {
	ctx      convCtx.Context
	table    convAccess.Table
	arbiter  convAccess.Arbiter
	sessions *convSession.Manager
	next     http.Handler
	logCalls bool
}

func New(ctx convCtx.Context, table convAccess.Table, arbiter convAccess.Arbiter, sessions *convSession.Manager, next http.Handler) *Gate {
	return &Gate{ctx, table, arbiter, sessions, next, false}
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	ctx := g.ctx.WithRequest(r)

	switch r.URL.Path {
	case PathSignIn:
		g.answer(ctx, w, r, g.serveSignIn)
		return
	case PathSignOut:
		g.answer(ctx, w, r, g.serveSignOut)
		return
	case PathSession:
		g.answer(ctx, w, r, g.serveSession)
		return
	}

	if g.arbiter.Config().IsPublic(r.URL.Path) {
		g.next.ServeHTTP(w, r)
		return
	}

	rec, authenticated, ctx, err := g.resync(ctx, r)
	if err != nil {
		ServeError(ctx, w, http.StatusInternalServerError, ErrorCodeInternalError, "failed to load session", err)
		return
	}

	route := g.table.Resolve(r.URL.Path)
	decision := g.arbiter.Authorize(admission(rec, authenticated), route, r.URL.RequestURI())

	if decision.Allowed() {
		g.next.ServeHTTP(w, r)
		return
	}

	ctx.Logger().Info("navigation not allowed",
		"decision", decision.Kind.String(),
		"route", route.Path,
		"authority", rec.Authority.Strings(),
	)

	g.answer(ctx, w, r, func(ctx convCtx.Context, w http.ResponseWriter, r *http.Request) {
		serveDecision(ctx, w, r, decision)
	})
}

func (g *Gate) answer(ctx convCtx.Context, w http.ResponseWriter, r *http.Request, handle func(convCtx.Context, http.ResponseWriter, *http.Request)) {
	if !g.logCalls {
		handle(ctx, w, r)
		return
	}
	logCall(ctx, w, r, func(w http.ResponseWriter, r *http.Request) {
		handle(ctx, w, r)
	})
}

// resync loads the session named by the cookie and refreshes it with the
// request's bearer token, if any.
func (g *Gate) resync(ctx convCtx.Context, r *http.Request) (rec convSession.Record, found bool, resCtx convCtx.Context, err error) {

	resCtx = ctx

	cookie, e := r.Cookie(SessionCookie)
	if e != nil || cookie.Value == "" {
		return
	}

	id := convCtx.SessionID(cookie.Value)
	resCtx = ctx.WithSession(id)

	token, _ := convAuth.BearerToken(r)

	entry, found, err := g.sessions.Resync(resCtx, id, token)
	if err != nil || !found {
		return
	}

	rec = entry.Record
	return
}

func admission(rec convSession.Record, authenticated bool) convAccess.Session {
	return convAccess.Session{
		Authenticated:      authenticated,
		Authority:          rec.Authority,
		IsSuperAdmin:       rec.IsSuperAdmin,
		ActiveCompanyID:    rec.ActiveCompanyID,
		SubscriptionStatus: string(rec.SubscriptionStatus),
	}
}

func serveDecision(ctx convCtx.Context, w http.ResponseWriter, r *http.Request, d convAccess.Decision) {

	navigation := r.Method == http.MethodGet || r.Method == http.MethodHead

	switch d.Kind {
	case convAccess.RedirectUnauthenticated:
		if navigation {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		serveError(w, decisionError(ctx, http.StatusUnauthorized, ErrorCodeUnauthorized, d))
	case convAccess.RedirectSubscriptionInactive:
		if navigation {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		serveError(w, decisionError(ctx, http.StatusForbidden, ErrorCodeSubscriptionInactive, d))
	case convAccess.BlockNoTenantSuperAdmin:
		serveError(w, decisionError(ctx, http.StatusForbidden, ErrorCodeNoTenantSelected, d))
	case convAccess.BlockNoTenantRegular:
		serveError(w, decisionError(ctx, http.StatusForbidden, ErrorCodeNoTenant, d))
	default:
		serveError(w, decisionError(ctx, http.StatusForbidden, ErrorCodeForbidden, d))
	}
}

func decisionError(ctx convCtx.Context, status int, code ErrorCode, d convAccess.Decision) *Error {
	err := newError(ctx, status, code, d.Message, nil)
	err.Redirect = d.Redirect
	return err
}

func (g *Gate) serveSignIn(ctx convCtx.Context, w http.ResponseWriter, r *http.Request) {
	ctx = ctx.WithScope("gate.serveSignIn")

	if r.Method != http.MethodPost {
		ServeError(ctx, w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed", nil)
		return
	}

	creds, err := readCredentials(r)
	if err != nil {
		ServeError(ctx, w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid sign-in request", err)
		return
	}

	id, entry, err := g.sessions.SignIn(ctx, creds)
	switch {
	case errors.Is(err, convSession.ErrSignInRejected):
		ServeError(ctx, w, http.StatusUnauthorized, ErrorCodeUnauthorized, "sign-in failed", err)
		return
	case errors.Is(err, convSession.ErrBackendUnreachable):
		ServeError(ctx, w, http.StatusBadGateway, ErrorCodeBackendUnreachable, convSession.ErrBackendUnreachable.Error(), nil)
		return
	case err != nil:
		ServeError(ctx, w, http.StatusInternalServerError, ErrorCodeInternalError, "sign-in failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    string(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	serveJSON(w, http.StatusOK, signInResponse{
		Token:    entry.Token,
		User:     entry.Record,
		Redirect: r.URL.Query().Get(g.arbiter.Config().RedirectParam),
	})
}

type signInResponse struct {
	Token    string             `json:"token"`
	User     convSession.Record `json:"user"`
	Redirect string             `json:"redirect,omitempty"`
}

func readCredentials(r *http.Request) (creds convSession.Credentials, err error) {

	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		err = r.ParseForm()
		if err != nil {
			return
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	} else {
		err = json.NewDecoder(r.Body).Decode(&creds)
		if err != nil {
			return
		}
	}

	if creds.Username == "" {
		err = errors.New("username is required")
	}
	return
}

func (g *Gate) serveSignOut(ctx convCtx.Context, w http.ResponseWriter, r *http.Request) {
	ctx = ctx.WithScope("gate.serveSignOut")

	if r.Method != http.MethodPost {
		ServeError(ctx, w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed", nil)
		return
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := g.sessions.SignOut(ctx, convCtx.SessionID(cookie.Value)); err != nil {
			ctx.Logger().Error("failed to clear session", "error", err.Error())
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (g *Gate) serveSession(ctx convCtx.Context, w http.ResponseWriter, r *http.Request) {
	ctx = ctx.WithScope("gate.serveSession")

	rec, found, ctx, err := g.resync(ctx, r)
	if err != nil {
		ServeError(ctx, w, http.StatusInternalServerError, ErrorCodeInternalError, "failed to load session", err)
		return
	}
	if !found {
		ServeError(ctx, w, http.StatusUnauthorized, ErrorCodeUnauthorized, "no active session", nil)
		return
	}

	serveJSON(w, http.StatusOK, rec)
}

func serveJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
