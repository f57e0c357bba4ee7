package auth

import (
	"context"
	"errors"
	"testing"
)

func TestStaticToken(t *testing.T) {
	ctx := context.Background()

	tok, err := StaticToken("sess-abc").Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "sess-abc" {
		t.Errorf("Token = %q, want %q", tok, "sess-abc")
	}

	_, err = StaticToken("").Token(ctx)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("empty token error = %v, want ErrNoCredentials", err)
	}
}

func TestEnvToken(t *testing.T) {
	ctx := context.Background()
	provider := NewEnvToken("WATCHSTREAM_TEST_TOKEN")

	_, err := provider.Token(ctx)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("unset var error = %v, want ErrNoCredentials", err)
	}

	t.Setenv("WATCHSTREAM_TEST_TOKEN", "sess-env")
	tok, err := provider.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "sess-env" {
		t.Errorf("Token = %q, want %q", tok, "sess-env")
	}

	// Token rotation survives a transient unset via the cached value.
	t.Setenv("WATCHSTREAM_TEST_TOKEN", "")
	tok, err = provider.Token(ctx)
	if err != nil {
		t.Fatalf("Token after unset failed: %v", err)
	}
	if tok != "sess-env" {
		t.Errorf("cached Token = %q, want %q", tok, "sess-env")
	}
}

func TestHeader(t *testing.T) {
	ctx := context.Background()

	h, err := Header(ctx, nil)
	if err != nil {
		t.Fatalf("Header(nil) failed: %v", err)
	}
	if got := h.Get("Authorization"); got != "" {
		t.Errorf("anonymous Authorization = %q, want empty", got)
	}

	h, err = Header(ctx, StaticToken("sess-abc"))
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer sess-abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer sess-abc")
	}
}
