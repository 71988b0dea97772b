package token

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// TestNewIssuer_EmptySecret は署名鍵が空の場合にエラーになることを検証する。
func TestNewIssuer_EmptySecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret, got nil")
	}
}

// TestIssuer_RoundTrip は発行したトークンが検証で同じユーザーIDに解決されることを検証する。
func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer returned error: %v", err)
	}

	tok, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	userID, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

// TestIssuer_Verify_Expired は期限切れトークンが未認証エラーになることを検証する。
func TestIssuer_Verify_Expired(t *testing.T) {
	issuer, err := NewIssuer("test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer returned error: %v", err)
	}

	tok, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = issuer.Verify(tok)
	assertUnauthenticated(t, err)
}

// TestIssuer_Verify_WrongSecret は異なる鍵で署名されたトークンが拒否されることを検証する。
func TestIssuer_Verify_WrongSecret(t *testing.T) {
	issuerA, _ := NewIssuer("secret-a", time.Hour)
	issuerB, _ := NewIssuer("secret-b", time.Hour)

	tok, err := issuerA.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = issuerB.Verify(tok)
	assertUnauthenticated(t, err)
}

// TestIssuer_Verify_Malformed は形式不正なトークンが拒否されることを検証する。
func TestIssuer_Verify_Malformed(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := issuer.Verify(tok)
		assertUnauthenticated(t, err)
	}
}

// TestIssuer_Verify_Tampered はペイロード改ざんが検出されることを検証する。
func TestIssuer_Verify_Tampered(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Hour)

	tok, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// 署名部分の末尾を書き換える
	tampered := tok[:len(tok)-2] + "xx"
	_, err = issuer.Verify(tampered)
	assertUnauthenticated(t, err)
}

// assertUnauthenticated はエラーが未認証APIErrorであることを検証する。
func assertUnauthenticated(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeUnauthenticated {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUnauthenticated)
	}
}
