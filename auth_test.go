package phenyl_test

import (
	"context"
	"testing"
	"time"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/session"
)

type stubAuthenticator struct {
	account  string
	password string
	user     phenyl.Entity
}

func (a *stubAuthenticator) Authenticate(_ context.Context, cmd *phenyl.LoginCommand, _ *session.Session, _ phenyl.Backends) (*phenyl.AuthenticationResult, error) {
	if cmd.Credentials["account"] != a.account || cmd.Credentials["password"] != a.password {
		return nil, phenyl.NewError(phenyl.KindUnauthorized, "entity not found")
	}
	return &phenyl.AuthenticationResult{
		PreSession: session.PreSession{
			EntityName: cmd.EntityName,
			UserID:     a.user.ID(),
			ExpiredAt:  time.Now().Add(time.Hour),
		},
		User:      a.user,
		VersionID: "v1",
	}, nil
}

func newAuthEngine(t *testing.T) *phenyl.Engine {
	t.Helper()

	auth := &stubAuthenticator{
		account:  "alice",
		password: "secret",
		user:     phenyl.Entity{"id": "u1", "account": "alice"},
	}
	engine, err := phenyl.New().
		WithBackend(newRecordingBackend()).
		WithSessionStore(session.NewMemoryStore()).
		WithAuthenticator(auth).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func login(t *testing.T, engine *phenyl.Engine, account, password string) *phenyl.Result {
	t.Helper()
	return engine.Run(context.Background(), phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": account, "password": password},
	}), "")
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	engine := newAuthEngine(t)

	res := login(t, engine, "alice", "secret")
	if res.Err != nil {
		t.Fatalf("login failed: %v", res.Err)
	}
	lr := res.Payload.(*phenyl.LoginResult)
	if lr.OK != 1 {
		t.Fatalf("ok = %d, want 1", lr.OK)
	}
	if lr.Session == nil || lr.Session.ID == "" {
		t.Fatal("expected a persisted session")
	}
	if lr.Session.UserID != lr.User.ID() {
		t.Fatalf("session bound to %q, user is %q", lr.Session.UserID, lr.User.ID())
	}

	res = engine.Run(context.Background(), phenyl.LogoutCmd(&phenyl.LogoutCommand{SessionID: lr.Session.ID}), lr.Session.ID)
	if res.Err != nil {
		t.Fatalf("logout failed: %v", res.Err)
	}
	if res.Payload.(*phenyl.LogoutResult).OK != 1 {
		t.Fatal("logout did not acknowledge")
	}

	// The session is gone; logging out again is a BadRequest.
	res = engine.Run(context.Background(), phenyl.LogoutCmd(&phenyl.LogoutCommand{SessionID: lr.Session.ID}), "")
	if res.Err == nil || res.Err.Kind != phenyl.KindBadRequest || res.Err.Message != "sessionId not found" {
		t.Fatalf("expected BadRequest(sessionId not found), got %+v", res)
	}
}

func TestLoginFailurePreservesVerifierKind(t *testing.T) {
	engine := newAuthEngine(t)

	res := login(t, engine, "alice", "wrong")
	if res.Err == nil || res.Err.Kind != phenyl.KindUnauthorized {
		t.Fatalf("expected verifier's Unauthorized, got %+v", res)
	}
	if res.Err.Message != "entity not found" {
		t.Fatalf("verifier message mangled: %q", res.Err.Message)
	}
}

func TestLogoutOfUnknownSession(t *testing.T) {
	engine := newAuthEngine(t)

	res := engine.Run(context.Background(), phenyl.LogoutCmd(&phenyl.LogoutCommand{SessionID: "never-existed"}), "")
	if res.Err == nil || res.Err.Kind != phenyl.KindBadRequest || res.Err.Message != "sessionId not found" {
		t.Fatalf("expected BadRequest(sessionId not found), got %+v", res)
	}
}

func TestLoginWithoutAuthenticator(t *testing.T) {
	engine, _ := newTestEngine(t, newRecordingBackend(), nil)

	res := login(t, engine, "alice", "secret")
	if res.Err == nil || res.Err.Kind != phenyl.KindUnauthorized {
		t.Fatalf("expected Unauthorized, got %+v", res)
	}
}
