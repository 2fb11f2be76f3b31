package signature

import (
	"strings"
	"testing"
)

func TestVerify(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	secret := "s3cret"
	valid := Sign(body, secret)

	tests := []struct {
		name   string
		body   []byte
		header string
		secret string
		want   bool
	}{
		{"valid", body, valid, secret, true},
		{"valid without prefix", body, strings.TrimPrefix(valid, "sha256="), secret, true},
		{"missing header", body, "", secret, false},
		{"empty secret", body, valid, "", false},
		{"wrong secret", body, valid, "other", false},
		{"tampered body", []byte(`{"ref":"refs/heads/evil"}`), valid, secret, false},
		{"garbage digest", body, "sha256=zznothex", secret, false},
		{"truncated digest", body, valid[:20], secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.body, tt.header, tt.secret); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSecret(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}

	b, err := NewSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("two generated secrets must differ")
	}
}
