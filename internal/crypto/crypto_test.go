package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams keeps Argon2id cheap in tests.
var fastParams = KDFParams{Time: 1, Memory: 1024, Threads: 1}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("GenerateKey() returned key of length %d, want %d", len(key), KeySize)
	}

	key2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() second call error = %v", err)
	}
	if bytes.Equal(key, key2) {
		t.Error("GenerateKey() returned identical keys")
	}
}

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	if len(salt) != SaltSize {
		t.Errorf("GenerateSalt() returned salt of length %d, want %d", len(salt), SaltSize)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hunter2")},
		{"long", bytes.Repeat([]byte("x"), 10000)},
		{"binary", []byte{0x00, 0xFF, 0xDE, 0xAD, 0xBE, 0xEF}},
	}

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := Encrypt(key, tt.plaintext, PurposeCredential)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(ciphertext) != len(tt.plaintext)+NonceSize+TagSize {
				t.Errorf("ciphertext length = %d, want %d", len(ciphertext), len(tt.plaintext)+NonceSize+TagSize)
			}

			got, err := Decrypt(key, ciphertext, PurposeCredential)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("Decrypt() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncrypt_NonceIsRandom(t *testing.T) {
	key, _ := GenerateKey()
	a, _ := Encrypt(key, []byte("same"), PurposeCredential)
	b, _ := Encrypt(key, []byte("same"), PurposeCredential)
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	ciphertext, err := Encrypt(key1, []byte("secret"), PurposeCredential)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(key2, ciphertext, PurposeCredential); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	key, _ := GenerateKey()
	ciphertext, _ := Encrypt(key, []byte("secret"), PurposeCredential)
	ciphertext[len(ciphertext)-1] ^= 0x01

	if _, err := Decrypt(key, ciphertext, PurposeCredential); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() tampered error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	key, _ := GenerateKey()
	if _, err := Decrypt(key, make([]byte, NonceSize), PurposeCredential); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Decrypt() short input error = %v, want ErrInvalidCiphertext", err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := Encrypt([]byte("short"), []byte("x"), PurposeCredential); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("Encrypt() error = %v, want ErrInvalidKeySize", err)
	}
	if _, err := Decrypt(make([]byte, 16), make([]byte, 64), PurposeCredential); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidKeySize", err)
	}
}

func TestDeriveKey(t *testing.T) {
	salt, _ := GenerateSalt()

	k1, err := DeriveKey([]byte("password"), salt, fastParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	k2, _ := DeriveKey([]byte("password"), salt, fastParams)
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey() is not deterministic")
	}
	if len(k1) != KeySize {
		t.Errorf("DeriveKey() length = %d, want %d", len(k1), KeySize)
	}

	k3, _ := DeriveKey([]byte("other"), salt, fastParams)
	if bytes.Equal(k1, k3) {
		t.Error("different passwords derived the same key")
	}
}

func TestDeriveKey_Validation(t *testing.T) {
	if _, err := DeriveKey([]byte("p"), []byte("short"), fastParams); !errors.Is(err, ErrInvalidSaltSize) {
		t.Errorf("error = %v, want ErrInvalidSaltSize", err)
	}
	salt, _ := GenerateSalt()
	if _, err := DeriveKey([]byte("p"), salt, KDFParams{}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("error = %v, want ErrInvalidParams", err)
	}
}

func TestEncryptDecryptString(t *testing.T) {
	key, _ := GenerateKey()

	enc, err := EncryptString(key, "p@ssw0rd")
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if enc == "p@ssw0rd" {
		t.Fatal("EncryptString() returned plaintext")
	}

	dec, err := DecryptString(key, enc)
	if err != nil {
		t.Fatalf("DecryptString() error = %v", err)
	}
	if dec != "p@ssw0rd" {
		t.Errorf("DecryptString() = %q, want %q", dec, "p@ssw0rd")
	}

	if _, err := DecryptString(key, "not base64!!"); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("DecryptString() bad input error = %v, want ErrInvalidCiphertext", err)
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %d, want 0", i, v)
		}
	}
}

func TestDecrypt_PurposeMismatch(t *testing.T) {
	key, _ := GenerateKey()
	wrapped, err := Encrypt(key, []byte("data key"), PurposeKeyWrap)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(key, wrapped, PurposeCredential); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() as credential error = %v, want ErrDecryptionFailed", err)
	}
	if _, err := Decrypt(key, wrapped, PurposeKeyWrap); err != nil {
		t.Errorf("Decrypt() with matching purpose error = %v", err)
	}
}

func TestKDFParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  KDFParams
		wantErr bool
	}{
		{"defaults", DefaultKDFParams(), false},
		{"fast", fastParams, false},
		{"zero time", KDFParams{Memory: 1024, Threads: 1}, true},
		{"zero threads", KDFParams{Time: 1, Memory: 1024}, true},
		{"memory above cap", KDFParams{Time: 1, Memory: maxMemoryKiB + 1, Threads: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() = %v, want ErrInvalidParams", err)
			}
		})
	}
}
