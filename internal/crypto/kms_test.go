package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestService(t *testing.T) *KMSService {
	t.Helper()
	svc, err := NewKMSService(testMasterKey)
	if err != nil {
		t.Fatalf("NewKMSService() error = %v", err)
	}
	return svc
}

func TestNewKMSService(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid 32-byte hex key", testMasterKey, false},
		{"empty key", "", true},
		{"non-hex key", "not-hex-at-all", true},
		{"short key", "0001020304", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKMSService(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewKMSService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKMSRoundTrip(t *testing.T) {
	svc := newTestService(t)

	secrets := []string{
		"sk-abc123",
		"a",
		strings.Repeat("long secret ", 100),
		"emoji 🔐 and unicode ñ",
	}

	for _, secret := range secrets {
		ref, err := svc.EncryptString(secret)
		if err != nil {
			t.Fatalf("EncryptString(%q) error = %v", secret, err)
		}
		if !strings.HasPrefix(ref, KMSPrefix) {
			t.Errorf("reference %q missing prefix %q", ref, KMSPrefix)
		}

		got, err := svc.DecryptString(ref)
		if err != nil {
			t.Fatalf("DecryptString() error = %v", err)
		}
		if got != secret {
			t.Errorf("round trip = %q, want %q", got, secret)
		}
	}
}

func TestKMSEncryptRandomized(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.EncryptString("same secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.EncryptString("same secret")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestKMSPayloadLayout(t *testing.T) {
	svc := newTestService(t)

	ref, err := svc.EncryptString("layout-check")
	if err != nil {
		t.Fatal(err)
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, KMSPrefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}

	wantMin := saltSize + ivSize + tagSize + len("layout-check")
	if len(payload) != wantMin {
		t.Errorf("payload length = %d, want %d (salt+iv+tag+ciphertext)", len(payload), wantMin)
	}
}

func TestKMSDecryptErrors(t *testing.T) {
	svc := newTestService(t)

	ref, err := svc.EncryptString("secret")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("missing prefix", func(t *testing.T) {
		if _, err := svc.DecryptString(strings.TrimPrefix(ref, KMSPrefix)); err == nil {
			t.Error("expected error for reference without prefix")
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := svc.DecryptString(KMSPrefix + "!!!not-base64!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		short := KMSPrefix + base64.StdEncoding.EncodeToString(make([]byte, saltSize))
		if _, err := svc.DecryptString(short); err == nil {
			t.Error("expected error for truncated payload")
		}
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		payload, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, KMSPrefix))
		payload[len(payload)-1] ^= 0xff
		tampered := KMSPrefix + base64.StdEncoding.EncodeToString(payload)
		if _, err := svc.DecryptString(tampered); err == nil {
			t.Error("expected error for tampered ciphertext")
		}
	})

	t.Run("wrong master key", func(t *testing.T) {
		other, err := NewKMSService(strings.Repeat("ff", 32))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := other.DecryptString(ref); err == nil {
			t.Error("expected error when decrypting with a different master key")
		}
	})
}

func TestIsReference(t *testing.T) {
	if !IsReference(KMSPrefix + "abc") {
		t.Error("prefixed value should be a reference")
	}
	if IsReference("plain-token") {
		t.Error("plain value should not be a reference")
	}
}

func TestGenerateMasterKey(t *testing.T) {
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey() error = %v", err)
	}
	if len(key) != 64 {
		t.Errorf("key length = %d, want 64 hex characters", len(key))
	}
	if _, err := NewKMSService(key); err != nil {
		t.Errorf("generated key rejected: %v", err)
	}
}
