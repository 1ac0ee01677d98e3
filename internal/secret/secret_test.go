package secret

import (
	"strings"
	"testing"
)

func TestNewCipherKeyLength(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "16 字节", key: strings.Repeat("a", 16), wantErr: false},
		{name: "24 字节", key: strings.Repeat("a", 24), wantErr: false},
		{name: "32 字节", key: strings.Repeat("a", 32), wantErr: false},
		{name: "空密钥", key: "", wantErr: true},
		{name: "长度不合法", key: strings.Repeat("a", 20), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCipher(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("unexpected error creating cipher: %v", err)
	}

	plaintext := "sk-very-secret-api-key"
	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted == plaintext || encrypted == "" {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("expected %q, got %q", plaintext, decrypted)
	}

	// 相同明文两次加密产生不同密文（随机 nonce）
	again, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("second encrypt failed: %v", err)
	}
	if again == encrypted {
		t.Error("expected distinct ciphertexts for repeated encryption")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	c, err := NewCipher(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("unexpected error creating cipher: %v", err)
	}

	encrypted, err := c.Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	other, err := NewCipher(strings.Repeat("x", 32))
	if err != nil {
		t.Fatalf("unexpected error creating cipher: %v", err)
	}
	if _, err := other.Decrypt(encrypted); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}

	if _, err := c.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected malformed ciphertext to fail")
	}
}

func TestEncryptEmptyString(t *testing.T) {
	c, err := NewCipher(strings.Repeat("k", 16))
	if err != nil {
		t.Fatalf("unexpected error creating cipher: %v", err)
	}

	encrypted, err := c.Encrypt("")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted != "" {
		t.Errorf("empty plaintext should stay empty, got %q", encrypted)
	}

	decrypted, err := c.Decrypt("")
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != "" {
		t.Errorf("empty ciphertext should stay empty, got %q", decrypted)
	}
}
