package phenyl_test

import (
	"testing"

	"github.com/nacam403/phenyl"
	"github.com/nacam403/phenyl/password"
)

func mustApply(t *testing.T, plaintext string) string {
	t.Helper()
	out, err := password.SHA256{}.Apply(plaintext)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return out
}

func TestEncryptPasswordInInsert(t *testing.T) {
	original := phenyl.Entity{"id": "u1", "password": "plain"}
	cmd := phenyl.InsertCmd(&phenyl.InsertCommand{EntityName: "user", Value: original})

	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}

	got := out.Payload.(*phenyl.InsertCommand).Value["password"]
	if got != mustApply(t, "plain") {
		t.Fatalf("password not transformed: %v", got)
	}
	if original["password"] != "plain" {
		t.Fatal("caller's entity was mutated")
	}
}

func TestEncryptPasswordInMultiInsert(t *testing.T) {
	cmd := phenyl.InsertAndFetchCmd(&phenyl.InsertCommand{
		EntityName: "user",
		Values: []phenyl.Entity{
			{"id": "u1", "password": "one"},
			{"id": "u2", "note": "no password here"},
		},
	})

	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}

	values := out.Payload.(*phenyl.InsertCommand).Values
	if values[0]["password"] != mustApply(t, "one") {
		t.Fatalf("first value not transformed: %v", values[0]["password"])
	}
	if _, ok := values[1]["password"]; ok {
		t.Fatal("a password field appeared where none existed")
	}
}

func TestEncryptPasswordInUpdateOperation(t *testing.T) {
	cmd := phenyl.UpdateCmd(&phenyl.UpdateCommand{
		EntityName: "user",
		ID:         "u1",
		Operation:  map[string]any{"$set": map[string]any{"password": "rotated", "name": "Alice"}},
	})

	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}

	set := out.Payload.(*phenyl.UpdateCommand).Operation["$set"].(map[string]any)
	if set["password"] != mustApply(t, "rotated") {
		t.Fatalf("$set password not transformed: %v", set["password"])
	}
	if set["name"] != "Alice" {
		t.Fatal("unrelated $set field touched")
	}
}

func TestEncryptPasswordInBareUpdateKey(t *testing.T) {
	cmd := phenyl.UpdateCmd(&phenyl.UpdateCommand{
		EntityName: "user",
		ID:         "u1",
		Operation:  map[string]any{"password": "rotated"},
	})

	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}
	if got := out.Payload.(*phenyl.UpdateCommand).Operation["password"]; got != mustApply(t, "rotated") {
		t.Fatalf("bare password key not transformed: %v", got)
	}
}

func TestEncryptPasswordInLoginCredentials(t *testing.T) {
	cmd := phenyl.LoginCmd(&phenyl.LoginCommand{
		EntityName:  "user",
		Credentials: map[string]string{"account": "alice", "password": "plain"},
	})

	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}
	creds := out.Payload.(*phenyl.LoginCommand).Credentials
	if creds["password"] != mustApply(t, "plain") {
		t.Fatalf("login password not transformed: %v", creds["password"])
	}
	if creds["account"] != "alice" {
		t.Fatal("account credential touched")
	}
}

func TestCommandsWithoutPasswordPassThrough(t *testing.T) {
	cmd := phenyl.FindCommand(&phenyl.WhereQuery{EntityName: "user"})
	out, err := phenyl.EncryptPasswordInCommand(cmd, "password", password.SHA256{})
	if err != nil {
		t.Fatalf("EncryptPasswordInCommand failed: %v", err)
	}
	if out != cmd {
		t.Fatal("expected the identical command back")
	}
}

func TestRemovePasswordFromResponses(t *testing.T) {
	single := &phenyl.Result{Kind: phenyl.CmdGet, Payload: &phenyl.EntityResult{
		OK: 1, Entity: phenyl.Entity{"id": "u1", "password": "x"},
	}}
	phenyl.RemovePasswordFromResult(single, "password")
	if _, ok := single.Payload.(*phenyl.EntityResult).Entity["password"]; ok {
		t.Fatal("single entity still carries the password")
	}

	list := &phenyl.Result{Kind: phenyl.CmdFind, Payload: &phenyl.EntitiesResult{
		OK: 1, Entities: []phenyl.Entity{{"id": "u1", "password": "x"}, {"id": "u2", "password": "y"}},
	}}
	phenyl.RemovePasswordFromResult(list, "password")
	for _, e := range list.Payload.(*phenyl.EntitiesResult).Entities {
		if _, ok := e["password"]; ok {
			t.Fatalf("entity %s still carries the password", e.ID())
		}
	}

	loginRes := &phenyl.Result{Kind: phenyl.CmdLogin, Payload: &phenyl.LoginResult{
		OK: 1, User: phenyl.Entity{"id": "u1", "password": "x"},
	}}
	phenyl.RemovePasswordFromResult(loginRes, "password")
	if _, ok := loginRes.Payload.(*phenyl.LoginResult).User["password"]; ok {
		t.Fatal("login user still carries the password")
	}
}

func TestErrorResultsPassThroughUnchanged(t *testing.T) {
	res := &phenyl.Result{Err: phenyl.NewError(phenyl.KindUnauthorized, "nope")}
	phenyl.RemovePasswordFromResult(res, "password")
	if res.Err == nil || res.Err.Message != "nope" {
		t.Fatalf("error result was touched: %+v", res)
	}
}
