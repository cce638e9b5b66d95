package service

import (
	"errors"
	"testing"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

func TestMintAndValidateToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice@acme.test", "Alice", user.RoleAdmin)

	token, err := env.auth.MintToken(env.ctx, u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	got, err := env.auth.ValidateToken(env.ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("validated user = %s, want %s", got.ID, u.ID)
	}

	if _, err := env.auth.ValidateToken(env.ctx, "not-a-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("bogus token err = %v, want ErrUnauthenticated", err)
	}
}

func TestMintTokenReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice@acme.test", "Alice", user.RoleAdmin)

	first, _ := env.auth.MintToken(env.ctx, u.ID)
	second, err := env.auth.MintToken(env.ctx, u.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := env.auth.ValidateToken(env.ctx, first); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("old token still valid after rotation")
	}
	if _, err := env.auth.ValidateToken(env.ctx, second); err != nil {
		t.Errorf("new token rejected: %v", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	hash, err := env.auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := env.store.CreateUser(env.ctx, &user.User{
		Email: "alice@acme.test", Name: "Alice", Role: user.RoleAdmin,
		Status: user.StatusActive, PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, token, err := env.auth.Login(env.ctx, "alice@acme.test", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID || token == "" {
		t.Errorf("login returned user %s / token %q", got.ID, token)
	}

	if _, _, err := env.auth.Login(env.ctx, "alice@acme.test", "wrong"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("wrong password err = %v, want ErrUnauthenticated", err)
	}
	if _, _, err := env.auth.Login(env.ctx, "nobody@acme.test", "whatever"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("unknown email err = %v, want ErrUnauthenticated", err)
	}
}

func TestInactiveUserCannotAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice@acme.test", "Alice", user.RoleAdmin)
	token, _ := env.auth.MintToken(env.ctx, u.ID)

	u.Status = user.StatusInactive
	if err := env.store.UpdateUser(env.ctx, u); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := env.auth.ValidateToken(env.ctx, token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("inactive user token err = %v, want ErrUnauthenticated", err)
	}
}
