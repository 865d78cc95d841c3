package phenyl_test

import (
	"context"
	"testing"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/password"
	"github.com/nacam403/phenyl/session"
	"github.com/nacam403/phenyl/storage/memory"
)

func newStandardUserEngine(t *testing.T) (*phenyl.Engine, *memory.Store) {
	t.Helper()

	backend := memory.New()
	registry := phenyl.NewRegistry().
		RegisterUser(phenyl.NewStandardUserDefinition("user"))

	engine, err := phenyl.New().
		WithBackend(backend).
		WithSessionStore(session.NewMemoryStore()).
		WithRegistry(registry).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, backend
}

func insertUser(t *testing.T, engine *phenyl.Engine, id, account, plaintext string) {
	t.Helper()

	res := engine.Run(context.Background(), phenyl.InsertCmd(&phenyl.InsertCommand{
		EntityName: "user",
		Value:      phenyl.Entity{"id": id, "account": account, "password": plaintext},
	}), "")
	if res.Err != nil {
		t.Fatalf("insert failed: %v", res.Err)
	}
}

func TestInsertStoresTransformedPassword(t *testing.T) {
	engine, backend := newStandardUserEngine(t)
	insertUser(t, engine, "u1", "alice", "plain")

	stored, err := backend.Get(context.Background(), &phenyl.IDQuery{EntityName: "user", ID: "u1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, _ := stored.Entity["password"].(string)
	if got == "plain" {
		t.Fatal("plaintext password reached the backend")
	}
	want, _ := password.SHA256{}.Apply("plain")
	if got != want {
		t.Fatalf("stored password = %q, want transform output %q", got, want)
	}
}

func TestInsertResponseContainsNoPassword(t *testing.T) {
	engine, _ := newStandardUserEngine(t)

	res := engine.Run(context.Background(), phenyl.InsertAndGetCmd(&phenyl.InsertCommand{
		EntityName: "user",
		Value:      phenyl.Entity{"id": "u1", "account": "alice", "password": "plain"},
	}), "")
	if res.Err != nil {
		t.Fatalf("insertAndGet failed: %v", res.Err)
	}
	entity := res.Payload.(*phenyl.EntityResult).Entity
	if _, ok := entity["password"]; ok {
		t.Fatal("response leaked the password field")
	}
}

func TestStandardUserLoginRoundTrip(t *testing.T) {
	engine, _ := newStandardUserEngine(t)
	insertUser(t, engine, "u1", "alice", "secret")

	res := engine.Run(context.Background(), phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": "alice", "password": "secret"},
	}), "")
	if res.Err != nil {
		t.Fatalf("login failed: %v", res.Err)
	}
	lr := res.Payload.(*phenyl.LoginResult)
	if lr.Session == nil || lr.Session.UserID != "u1" {
		t.Fatalf("session %+v not bound to u1", lr.Session)
	}
	if _, ok := lr.User["password"]; ok {
		t.Fatal("login response leaked the password field")
	}

	res = engine.Run(context.Background(), phenyl.LogoutCmd(&phenyl.LogoutCommand{SessionID: lr.Session.ID}), lr.Session.ID)
	if res.Err != nil {
		t.Fatalf("logout failed: %v", res.Err)
	}
}

func TestWrongPasswordIsUnauthorized(t *testing.T) {
	engine, _ := newStandardUserEngine(t)
	insertUser(t, engine, "u1", "alice", "secret")

	res := engine.Run(context.Background(), phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": "alice", "password": "wrong"},
	}), "")
	if res.Err == nil || res.Err.Kind != phenyl.KindUnauthorized {
		t.Fatalf("expected Unauthorized, got %+v", res)
	}
}

func TestUnknownAccountIsUnauthorizedToo(t *testing.T) {
	// Backend lookup failures and credential mismatches are deliberately
	// indistinguishable.
	engine, _ := newStandardUserEngine(t)

	res := engine.Run(context.Background(), phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": "nobody", "password": "secret"},
	}), "")
	if res.Err == nil || res.Err.Kind != phenyl.KindUnauthorized {
		t.Fatalf("expected Unauthorized, got %+v", res)
	}
}

func TestUpdateEncryptsPasswordInSet(t *testing.T) {
	engine, backend := newStandardUserEngine(t)
	insertUser(t, engine, "u1", "alice", "old-secret")

	res := engine.Run(context.Background(), phenyl.UpdateCmd(&phenyl.UpdateCommand{
		EntityName: "user",
		ID:         "u1",
		Operation:  map[string]any{"$set": map[string]any{"password": "new-secret"}},
	}), "")
	if res.Err != nil {
		t.Fatalf("update failed: %v", res.Err)
	}

	stored, err := backend.Get(context.Background(), &phenyl.IDQuery{EntityName: "user", ID: "u1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want, _ := password.SHA256{}.Apply("new-secret")
	if stored.Entity["password"] != want {
		t.Fatalf("stored password = %v, want transform of new-secret", stored.Entity["password"])
	}

	// The new password must now verify.
	login := engine.Run(context.Background(), phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": "alice", "password": "new-secret"},
	}), "")
	if login.Err != nil {
		t.Fatalf("login with rotated password failed: %v", login.Err)
	}
}

func TestOtherEntitiesBypassTheUserWrapper(t *testing.T) {
	engine, backend := newStandardUserEngine(t)

	res := engine.Run(context.Background(), phenyl.InsertCmd(&phenyl.InsertCommand{
		EntityName: "note",
		Value:      phenyl.Entity{"id": "n1", "password": "not-a-credential"},
	}), "")
	if res.Err != nil {
		t.Fatalf("insert failed: %v", res.Err)
	}

	stored, err := backend.Get(context.Background(), &phenyl.IDQuery{EntityName: "note", ID: "n1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Entity["password"] != "not-a-credential" {
		t.Fatal("wrapper leaked onto an unregistered entity")
	}
}
