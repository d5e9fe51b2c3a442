package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSessionFixture() (*SessionService, *fakeSessions, *testClock) {
	cfg := &config.Config{SessionSecret: "test-secret", SessionTTL: 7 * 24 * time.Hour}
	store := newFakeSessions()
	svc := NewSessionService(cfg, store)
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.now
	return svc, store, clock
}

var studentPrincipal = model.Principal{
	SubjectID:   "42",
	DisplayName: "Ada Lovelace",
	Email:       "ada@example.com",
	Role:        model.RoleStudent,
}

func TestIssueAndValidate(t *testing.T) {
	svc, _, clock := newSessionFixture()
	ctx := context.Background()

	sess, err := svc.Issue(ctx, studentPrincipal)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := clock.t.Add(7 * 24 * time.Hour); !sess.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}

	got, err := svc.Validate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Principal != studentPrincipal {
		t.Errorf("principal = %+v, want %+v", got.Principal, studentPrincipal)
	}
	if got.ID != sess.ID || got.Renewed {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestTokenCarriesExactlyFourPrincipalClaims(t *testing.T) {
	svc, _, _ := newSessionFixture()
	sess, err := svc.Issue(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatal(err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, claims); err != nil {
		t.Fatal(err)
	}
	registered := map[string]bool{"jti": true, "iat": true, "exp": true}
	var custom []string
	for k := range claims {
		if !registered[k] {
			custom = append(custom, k)
		}
	}
	if len(custom) != 4 {
		t.Errorf("principal claims = %v, want sub, name, email, role", custom)
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newSessionFixture()
	p := studentPrincipal
	p.Role = "Moderator"
	if _, err := svc.Issue(context.Background(), p); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestValidateAfterRevoke(t *testing.T) {
	svc, _, _ := newSessionFixture()
	ctx := context.Background()
	sess, _ := svc.Issue(ctx, studentPrincipal)

	if err := svc.Revoke(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(ctx, sess.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
}

func TestValidateExpired(t *testing.T) {
	svc, _, clock := newSessionFixture()
	ctx := context.Background()
	sess, _ := svc.Issue(ctx, studentPrincipal)

	clock.advance(7*24*time.Hour + time.Minute)
	if _, err := svc.Validate(ctx, sess.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
}

func TestValidateSlidingRenewal(t *testing.T) {
	svc, store, clock := newSessionFixture()
	ctx := context.Background()
	sess, _ := svc.Issue(ctx, studentPrincipal)

	clock.advance(time.Hour)
	early, err := svc.Validate(ctx, sess.Token)
	if err != nil || early.Renewed {
		t.Fatalf("early validate: renewed=%v err=%v", early != nil && early.Renewed, err)
	}

	clock.advance(4 * 24 * time.Hour)
	late, err := svc.Validate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("late validate: %v", err)
	}
	if !late.Renewed || late.Token == sess.Token {
		t.Fatal("expected a renewed token past half of the lifetime")
	}
	if want := clock.t.Add(7 * 24 * time.Hour); !late.ExpiresAt.Equal(want) {
		t.Errorf("renewed ExpiresAt = %v, want %v", late.ExpiresAt, want)
	}
	if store.touched != 1 {
		t.Errorf("store touched %d times, want 1", store.touched)
	}

	// The renewed token outlives the original expiry.
	clock.advance(5 * 24 * time.Hour)
	if _, err := svc.Validate(ctx, late.Token); err != nil {
		t.Errorf("renewed token rejected: %v", err)
	}
	if _, err := svc.Validate(ctx, sess.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("original token err = %v, want ErrSessionInvalid", err)
	}
}

func TestValidateRejectsTamperedOrForeignTokens(t *testing.T) {
	svc, _, clock := newSessionFixture()
	ctx := context.Background()
	sess, _ := svc.Issue(ctx, studentPrincipal)

	tampered := sess.Token[:len(sess.Token)-2] + "xx"
	if _, err := svc.Validate(ctx, tampered); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("tampered: err = %v", err)
	}

	other := NewSessionService(&config.Config{SessionSecret: "other", SessionTTL: time.Hour}, newFakeSessions())
	other.now = clock.now
	foreign, _ := other.Issue(ctx, studentPrincipal)
	if _, err := svc.Validate(ctx, foreign.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("foreign: err = %v", err)
	}

	if _, err := svc.Validate(ctx, "garbage"); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestValidateRejectsRoleDifferentFromRegisteredSession(t *testing.T) {
	svc, store, _ := newSessionFixture()
	ctx := context.Background()
	sess, _ := svc.Issue(ctx, studentPrincipal)

	// Re-sign the same session id with an elevated role.
	forged := *sess
	forged.Principal.Role = model.RoleAdmin
	token, err := svc.sign(&forged)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
	if p, _ := store.Get(ctx, sess.ID); p.Role != model.RoleStudent {
		t.Errorf("stored role changed to %s", p.Role)
	}
}

func TestCSRFToken(t *testing.T) {
	svc, _, _ := newSessionFixture()
	tok := svc.CSRFToken("session-a")

	if !svc.VerifyCSRF("session-a", tok) {
		t.Error("token should verify for its own session")
	}
	if svc.VerifyCSRF("session-b", tok) {
		t.Error("token must not verify for another session")
	}
	if svc.VerifyCSRF("session-a", "") {
		t.Error("empty token must not verify")
	}
}
