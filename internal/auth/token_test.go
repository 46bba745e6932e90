package auth_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"InterviewCoach/internal/auth"
)

func TestStaticToken(t *testing.T) {
	if _, err := auth.StaticToken("").Token(context.Background()); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	tok, err := auth.StaticToken("abc").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q (%v)", tok, err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := auth.NewFileStore(filepath.Join(t.TempDir(), "nested", "token.json"))

	if _, err := store.Token(ctx); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("expected ErrNoToken before save, got %v", err)
	}

	if err := store.Save("secret"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	tok, err := store.Token(ctx)
	if err != nil || tok != "secret" {
		t.Fatalf("expected secret, got %q (%v)", tok, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Token(ctx); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("expected ErrNoToken after clear, got %v", err)
	}
}
