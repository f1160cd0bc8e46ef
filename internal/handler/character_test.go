package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/iliyamo/character-api/internal/model"
)

func TestCharacterLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "a@b.com")

	rec := env.do(t, http.MethodGet, "/characters", tok, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("empty list: %d %q", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/characters", tok, `{"name":"Aragorn","lastName":"Elessar"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	var created model.Character
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Name != "Aragorn" || created.LastName != "Elessar" {
		t.Fatalf("unexpected %+v", created)
	}
	path := "/characters/" + strconv.FormatUint(created.ID, 10)

	rec = env.do(t, http.MethodGet, path, tok, "")
	var got model.Character
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got != created {
		t.Fatalf("get: %d %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPut, path, tok, `{"name":"Strider","lastName":"Dunadan"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", rec.Code, rec.Body)
	}
	got, _ = env.chars.GetByID(context.Background(), created.ID)
	if got.Name != "Strider" || got.ID != created.ID {
		t.Fatalf("replace not applied: %+v", got)
	}

	rec = env.do(t, http.MethodDelete, path, tok, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}
	rec = env.do(t, http.MethodGet, path, tok, "")
	if rec.Code != http.StatusNotFound || message(t, rec) != "Character Not Found" {
		t.Fatalf("after delete: %d %s", rec.Code, rec.Body)
	}
	rec = env.do(t, http.MethodDelete, path, tok, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
}

func TestCreateCharacterValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "a@b.com")

	for _, body := range []string{
		`{"name":"Frodo","lastName":"Baggins"}`,
		`{"name":"Aragorn","lastName":"Son"}`,
		`{"name":"Aragorn"}`,
		`{}`,
	} {
		rec := env.do(t, http.MethodPost, "/characters", tok, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", body, rec.Code)
		}
	}
	if n, _ := env.chars.Count(context.Background()); n != 0 {
		t.Fatalf("rejected bodies mutated the store: %d characters", n)
	}
}

func TestCharacterValidationMessageNamesField(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "a@b.com")
	rec := env.do(t, http.MethodPost, "/characters", tok, `{"name":"Aragorn","lastName":"Son"}`)
	if got := message(t, rec); got != "lastName must be at least 6 characters" {
		t.Fatalf("message %q", got)
	}
}

func TestCharacterIDMustBeNumeric(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "a@b.com")
	for _, p := range []string{"/characters/abc", "/characters/0", "/characters/-1"} {
		rec := env.do(t, http.MethodGet, p, tok, "")
		if rec.Code != http.StatusBadRequest || message(t, rec) != "Invalid character id" {
			t.Fatalf("%s: %d %s", p, rec.Code, rec.Body)
		}
	}
}

func TestReplaceMissingCharacter(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "a@b.com")
	rec := env.do(t, http.MethodPut, "/characters/12345", tok, `{"name":"Aragorn","lastName":"Elessar"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
