package session

import (
	convAuth "github.com/sofmon/posgate/lib/auth"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

// Manager owns the session records: it is the only writer of the store.
type Manager struct {
	store   Store
	backend Backend
}

func NewManager(store Store, backend Backend) *Manager {
	return &Manager{store, backend}
}

// SignIn authenticates against the backend and stores a fresh record under a
// new session id.
func (m *Manager) SignIn(ctx convCtx.Context, creds Credentials) (id convCtx.SessionID, entry Entry, err error) {
	ctx = ctx.WithScope("Manager.SignIn", "username", creds.Username)
	defer ctx.Exit(&err, ErrBackendUnreachable, ErrSignInRejected)

	payload, err := m.backend.SignIn(ctx, creds)
	if err != nil {
		return
	}

	id = NewID()
	entry = Entry{
		Token:     payload.Token,
		Record:    FromSignIn(ctx, payload),
		UpdatedAt: ctx.Now(),
	}

	err = m.store.Save(ctx, id, entry)
	if err != nil {
		id = ""
		return
	}

	ctx.WithSession(id).WithUser(entry.Record.Username).Logger().Info("signed in",
		"username", entry.Record.Username,
		"authority", entry.Record.Authority.Strings(),
		"super_admin", entry.Record.IsSuperAdmin,
	)

	return
}

// Resync rehydrates the stored record. A request token different from the
// stored one is adopted only when its signature verifies; otherwise it is
// ignored and the stored token is used. The store is written only when the
// record or token actually changed.
func (m *Manager) Resync(ctx convCtx.Context, id convCtx.SessionID, token string) (entry Entry, found bool, err error) {
	ctx = ctx.WithScope("Manager.Resync", "id", id)
	defer ctx.Exit(&err)

	entry, found, err = m.store.Load(ctx, id)
	if err != nil || !found {
		return
	}

	ctx = ctx.WithUser(entry.Record.Username)

	token = sessionToken(ctx, entry.Token, token)

	rec, changed := Resync(ctx, token, entry.Record)
	if !changed && token == entry.Token {
		return
	}

	if changed {
		ctx.Logger().Info("session authority changed",
			"from", entry.Record.Authority.Strings(),
			"to", rec.Authority.Strings(),
			"super_admin", rec.IsSuperAdmin,
		)
	}

	entry = Entry{
		Token:     token,
		Record:    rec,
		UpdatedAt: ctx.Now(),
	}

	err = m.store.Save(ctx, id, entry)
	return
}

// sessionToken picks the token the session is rehydrated from: the request's
// when it verifies, the stored one otherwise.
func sessionToken(ctx convCtx.Context, stored, requested string) string {

	if requested == "" || requested == stored {
		return stored
	}

	if err := convAuth.VerifyToken(requested); err != nil {
		ctx.Logger().Warn("ignoring request token", "error", err.Error())
		return stored
	}

	return requested
}

// SignOut clears the local session first; the backend is only notified and
// its outcome does not matter.
func (m *Manager) SignOut(ctx convCtx.Context, id convCtx.SessionID) (err error) {
	ctx = ctx.WithScope("Manager.SignOut", "id", id)
	defer ctx.Exit(&err)

	entry, found, e := m.store.Load(ctx, id)
	if e != nil {
		ctx.Logger().Warn("failed to load session before sign-out", "error", e.Error())
	}

	err = m.store.Delete(ctx, id)
	if err != nil {
		return
	}

	if found && m.backend != nil {
		if e := m.backend.SignOut(ctx, entry.Token); e != nil {
			ctx.Logger().Warn("backend sign-out failed", "error", e.Error())
		}
	}

	return
}
