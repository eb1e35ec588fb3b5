package crypto_test

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/yeisme/vaultshare/pkg/internal/crypto"
)

// TestRoundTrip 测试任意字节串的加解密往返。
func TestRoundTrip(t *testing.T) {
	key := crypto.DeriveKey("master-secret-for-tests")

	inputs := []string{
		"",
		"ghp_abcdef0123456789",
		"带非 ASCII 的凭证 ü§",
		string([]byte{0, 1, 2, 255, 254}),
	}

	for _, in := range inputs {
		blob, err := crypto.Encrypt(in, key)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}

		out, err := crypto.Decrypt(blob, key)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}

		if out != in {
			t.Errorf("round trip mismatch: got %q, want %q", out, in)
		}
	}
}

// TestNonceUniqueness 测试同一明文两次加密产生不同密文。
func TestNonceUniqueness(t *testing.T) {
	key := crypto.DeriveKey("master-secret-for-tests")

	a, err := crypto.Encrypt("same plaintext", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	b, err := crypto.Encrypt("same plaintext", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if a == b {
		t.Error("expected distinct ciphertexts for repeated encryption")
	}
}

// TestTamperedCiphertext 测试翻转密文任意一个字节都会导致解密失败。
func TestTamperedCiphertext(t *testing.T) {
	key := crypto.DeriveKey("master-secret-for-tests")

	blob, err := crypto.Encrypt("sensitive-token", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		_, err := crypto.Decrypt(base64.RawURLEncoding.EncodeToString(mutated), key)
		if !errors.Is(err, crypto.ErrDecryptFailed) {
			t.Fatalf("byte %d: expected ErrDecryptFailed, got %v", i, err)
		}
	}
}

// TestWrongKey 测试错误主密钥派生的密钥无法解密。
func TestWrongKey(t *testing.T) {
	key := crypto.DeriveKey("right-secret")

	blob, err := crypto.Encrypt("payload", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := crypto.Decrypt(blob, crypto.DeriveKey("wrong-secret")); !errors.Is(err, crypto.ErrDecryptFailed) {
		t.Errorf("expected ErrDecryptFailed with wrong key, got %v", err)
	}
}

// TestDecryptGarbage 测试非法输入的防御行为。
func TestDecryptGarbage(t *testing.T) {
	key := crypto.DeriveKey("master-secret-for-tests")

	junk := make([]byte, 8)
	_, _ = rand.Read(junk)

	for _, blob := range []string{"", "!!!not-base64!!!", base64.RawURLEncoding.EncodeToString(junk)} {
		if _, err := crypto.Decrypt(blob, key); !errors.Is(err, crypto.ErrDecryptFailed) {
			t.Errorf("blob %q: expected ErrDecryptFailed, got %v", blob, err)
		}
	}
}

// TestDeriveKeyDeterministic 测试密钥派生的确定性与长度。
func TestDeriveKeyDeterministic(t *testing.T) {
	a := crypto.DeriveKey("secret")

	b := crypto.DeriveKey("secret")
	if string(a) != string(b) {
		t.Error("expected deterministic key derivation")
	}

	if len(a) != 32 {
		t.Errorf("expected 256-bit key, got %d bytes", len(a))
	}

	if string(a) == string(crypto.DeriveKey("secret2")) {
		t.Error("expected different secrets to derive different keys")
	}
}
