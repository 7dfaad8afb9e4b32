package controllers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"anifunnel/internal/models"
	"anifunnel/internal/services/anilist"
)

// makeToken builds an unsigned token carrying only an exp claim. The expiry
// is read locally without signature verification, so this is enough.
func makeToken(expiry time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, expiry.Unix())))
	return header + "." + claims + ".sig"
}

type authFixture struct {
	db        *models.Database
	tracker   *fakeTracker
	watchlist *WatchlistController
	ctrl      *AuthController
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "anifunnel.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	tracker := &fakeTracker{viewer: &anilist.Viewer{ID: 42, Name: "tester"}}
	watchlist := NewWatchlistController(tracker, 10*time.Minute, logger)
	ctrl := NewAuthController(db, tracker, watchlist, logger)

	return &authFixture{db: db, tracker: tracker, watchlist: watchlist, ctrl: ctrl}
}

func TestAuthenticateStoresCredential(t *testing.T) {
	f := newAuthFixture(t)
	expiry := time.Now().Add(365 * 24 * time.Hour)

	cred, err := f.ctrl.Authenticate(context.Background(), makeToken(expiry))
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if cred.UserID != 42 || cred.Username != "tester" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if cred.Expiry.Unix() != expiry.Unix() {
		t.Fatalf("expiry must come from the token, got %v want %v", cred.Expiry, expiry)
	}

	stored, err := f.db.GetCredential()
	if err != nil || stored == nil {
		t.Fatalf("credential not persisted: %v", err)
	}
	if stored.Token != cred.Token {
		t.Fatal("persisted token differs from returned credential")
	}
}

func TestAuthenticateReplacesCredential(t *testing.T) {
	f := newAuthFixture(t)

	first, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("first authenticate failed: %v", err)
	}

	f.tracker.viewer = &anilist.Viewer{ID: 99, Name: "other"}
	second, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("second authenticate failed: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("tokens should differ between authentications")
	}

	stored, _ := f.db.GetCredential()
	if stored == nil || stored.UserID != 99 {
		t.Fatalf("second credential should supersede the first, got %+v", stored)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(-time.Hour))); err == nil {
		t.Fatal("expired token must be rejected")
	}
	if stored, _ := f.db.GetCredential(); stored != nil {
		t.Fatalf("rejected token must not be stored, got %+v", stored)
	}
}

func TestAuthenticateRejectsMalformedToken(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.ctrl.Authenticate(context.Background(), "not a token"); err == nil {
		t.Fatal("malformed token must be rejected")
	}
}

func TestAuthenticateRemoteValidationFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.tracker.viewerErr = errors.New("boom")

	if _, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(time.Hour))); err == nil {
		t.Fatal("remote rejection must fail authentication")
	}
	if stored, _ := f.db.GetCredential(); stored != nil {
		t.Fatalf("unvalidated token must not be stored, got %+v", stored)
	}
}

func TestAuthenticateClearsWatchlist(t *testing.T) {
	f := newAuthFixture(t)
	f.tracker.list = []*models.TrackedEntry{
		{MediaID: 101, EntryID: 201, Titles: []string{"Sousou no Frieren"}, Progress: 4},
	}

	cred, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := f.watchlist.Entries(context.Background(), cred); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, ok := f.watchlist.Progress(101); !ok {
		t.Fatal("expected cached entry after refresh")
	}

	if _, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(2*time.Hour))); err != nil {
		t.Fatalf("re-authenticate failed: %v", err)
	}
	if _, ok := f.watchlist.Progress(101); ok {
		t.Fatal("re-authentication must drop the previous owner's cache")
	}
}

func TestActiveFiltersExpired(t *testing.T) {
	f := newAuthFixture(t)

	cred, err := f.ctrl.Active()
	if err != nil || cred != nil {
		t.Fatalf("expected no active credential, got %+v err=%v", cred, err)
	}

	f.db.SetCredential(&models.Credential{Token: "stale", Expiry: time.Now().Add(-time.Hour)})
	cred, err = f.ctrl.Active()
	if err != nil || cred != nil {
		t.Fatalf("expired credential must not be active, got %+v err=%v", cred, err)
	}

	f.db.SetCredential(&models.Credential{Token: "live", Expiry: time.Now().Add(time.Hour)})
	cred, err = f.ctrl.Active()
	if err != nil || cred == nil || cred.Token != "live" {
		t.Fatalf("expected live credential, got %+v err=%v", cred, err)
	}
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.ctrl.Authenticate(context.Background(), makeToken(time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if err := f.ctrl.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if stored, _ := f.db.GetCredential(); stored != nil {
		t.Fatalf("logout must delete the credential, got %+v", stored)
	}
}

func TestRemoveExpired(t *testing.T) {
	f := newAuthFixture(t)

	f.db.SetCredential(&models.Credential{Token: "stale", Expiry: time.Now().Add(-time.Hour)})
	f.ctrl.RemoveExpired()
	if stored, _ := f.db.GetCredential(); stored != nil {
		t.Fatalf("cleanup must remove the expired credential, got %+v", stored)
	}

	f.db.SetCredential(&models.Credential{Token: "live", Expiry: time.Now().Add(time.Hour)})
	f.ctrl.RemoveExpired()
	if stored, _ := f.db.GetCredential(); stored == nil {
		t.Fatal("cleanup must keep a valid credential")
	}
}
