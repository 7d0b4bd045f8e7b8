package session_test

import (
	"errors"
	"path/filepath"
	"testing"

	convAuth "github.com/sofmon/posgate/lib/auth"
	convCtx "github.com/sofmon/posgate/lib/ctx"
	convSession "github.com/sofmon/posgate/lib/session"
)

type fakeBackend struct {
	payload    convSession.SignInPayload
	signInErr  error
	signOutErr error
	signedOut  []string
}

func (b *fakeBackend) SignIn(ctx convCtx.Context, creds convSession.Credentials) (convSession.SignInPayload, error) {
	return b.payload, b.signInErr
}

func (b *fakeBackend) SignOut(ctx convCtx.Context, token string) error {
	b.signedOut = append(b.signedOut, token)
	return b.signOutErr
}

// countingStore records how many times the manager writes.
type countingStore struct {
	convSession.Store
	saves int
}

func (s *countingStore) Save(ctx convCtx.Context, id convCtx.SessionID, entry convSession.Entry) error {
	s.saves++
	return s.Store.Save(ctx, id, entry)
}

func TestManagerLifecycle(t *testing.T) {

	ctx := newCtx()

	signInToken := unsignedToken(`{"sub":"maria","activeCompanyId":7,"roles":["sales"]}`)

	backend := &fakeBackend{
		payload: convSession.SignInPayload{
			Token: signInToken,
			User:  &convSession.SignInUser{Username: "maria", Roles: convAuth.PlainNames("sales")},
		},
		signOutErr: errors.New("backend down"),
	}
	store := &countingStore{Store: convSession.NewMemoryStore()}
	manager := convSession.NewManager(store, backend)

	id, entry, err := manager.SignIn(ctx, convSession.Credentials{Username: "maria", Password: "x"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if id == "" || entry.Token != signInToken || entry.Record.Username != "maria" {
		t.Fatalf("unexpected sign-in result %q %+v", id, entry)
	}
	if store.saves != 1 {
		t.Fatalf("expected 1 save after sign-in, got %d", store.saves)
	}

	// same token, nothing drifted
	for range 3 {
		_, found, err := manager.Resync(ctx, id, "")
		if err != nil || !found {
			t.Fatalf("Resync failed: %v (found=%v)", err, found)
		}
	}
	if store.saves != 1 {
		t.Fatalf("expected no writes without drift, got %d saves", store.saves)
	}

	refreshed, err := convAuth.GenerateToken(convAuth.Claims{
		Subject:         "maria",
		ActiveCompanyID: convAuth.CompanyIDPtr("7"),
		Roles:           convAuth.PlainNames("sales", "admin"),
	})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	entry, _, err = manager.Resync(ctx, id, refreshed)
	if err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if !entry.Record.Authority.Equal(convAuth.NewAuthority("ADMIN", "SALES")) || entry.Token != refreshed {
		t.Fatalf("expected refreshed authority and token, got %+v", entry)
	}
	if store.saves != 2 {
		t.Fatalf("expected 1 write for the drift, got %d saves", store.saves)
	}

	_, _, _ = manager.Resync(ctx, id, "")
	if store.saves != 2 {
		t.Fatalf("expected stored token to be reused without a write, got %d saves", store.saves)
	}

	if err := manager.SignOut(ctx, id); err != nil {
		t.Fatalf("SignOut must succeed even when the backend fails: %v", err)
	}
	if len(backend.signedOut) != 1 || backend.signedOut[0] != refreshed {
		t.Fatalf("expected backend notified with the last token, got %v", backend.signedOut)
	}

	_, found, err := manager.Resync(ctx, id, "")
	if err != nil || found {
		t.Fatalf("expected session to be gone, found=%v err=%v", found, err)
	}
}

func TestManagerIgnoresUnverifiedTokens(t *testing.T) {

	ctx := newCtx()

	signInToken := unsignedToken(`{"sub":"cashier","activeCompanyId":7,"roles":["sales"]}`)

	backend := &fakeBackend{
		payload: convSession.SignInPayload{
			Token: signInToken,
			User:  &convSession.SignInUser{Username: "cashier", Roles: convAuth.PlainNames("sales")},
		},
	}
	store := &countingStore{Store: convSession.NewMemoryStore()}
	manager := convSession.NewManager(store, backend)

	id, signedIn, err := manager.SignIn(ctx, convSession.Credentials{Username: "cashier", Password: "x"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	testData := []struct {
		name  string
		token string
	}{
		{"malformed", "garbage"},
		{"unsigned escalation", unsignedToken(`{"sub":"cashier","activeCompanyId":7,"isSuperAdmin":true,"roles":["superadmin"]}`)},
		{"unsigned tenant switch", unsignedToken(`{"sub":"cashier","activeCompanyId":9,"roles":["sales","admin"]}`)},
	}

	for _, td := range testData {
		for _, token := range []string{td.token, ""} {
			entry, found, err := manager.Resync(ctx, id, token)
			if err != nil || !found {
				t.Fatalf("%s: Resync failed: %v (found=%v)", td.name, err, found)
			}
			if entry.Token != signInToken || !entry.Record.Equal(signedIn.Record) {
				t.Fatalf("%s: expected the stored session to be kept, got %+v", td.name, entry)
			}
		}
	}

	if store.saves != 1 {
		t.Fatalf("expected no writes for unverified tokens, got %d saves", store.saves)
	}
}

func TestManagerSignInFailure(t *testing.T) {

	backend := &fakeBackend{signInErr: convSession.ErrBackendUnreachable}
	store := &countingStore{Store: convSession.NewMemoryStore()}

	id, _, err := convSession.NewManager(store, backend).SignIn(newCtx(), convSession.Credentials{Username: "maria"})
	if !errors.Is(err, convSession.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
	if id != "" || store.saves != 0 {
		t.Fatalf("expected nothing stored, got id=%q saves=%d", id, store.saves)
	}
}

func TestSQLiteStore(t *testing.T) {

	ctx := newCtx()

	store, err := convSession.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	id := convSession.NewID()

	_, found, err := store.Load(ctx, id)
	if err != nil || found {
		t.Fatalf("expected missing entry, found=%v err=%v", found, err)
	}

	tenantRole := "OWNER"
	entry := convSession.Entry{
		Token: "a.b.c",
		Record: convSession.Record{
			Username:           "maria",
			OwnerDisplayName:   "Maria Lopez",
			SubscriptionStatus: convSession.SubscriptionActive,
			Resolved: convSession.Resolved{
				Authority:       convAuth.NewAuthority("ADMIN", "SUPERADMIN"),
				IsSuperAdmin:    true,
				ActiveCompanyID: convAuth.CompanyIDPtr("7"),
				TenantRole:      &tenantRole,
			},
		},
		UpdatedAt: ctx.Now(),
	}

	for range 2 {
		if err := store.Save(ctx, id, entry); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	loaded, found, err := store.Load(ctx, id)
	if err != nil || !found {
		t.Fatalf("Load failed: found=%v err=%v", found, err)
	}
	if loaded.Token != entry.Token || !loaded.Record.Equal(entry.Record) {
		t.Fatalf("expected %+v, got %+v", entry, loaded)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := store.Load(ctx, id); found {
		t.Fatal("expected entry to be deleted")
	}
}
