package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAndVerify(t *testing.T) {
	gen := NewKeyGenerator(bcrypt.MinCost)
	key, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(key.Plaintext, "sd_"+key.Prefix+"_") {
		t.Fatalf("plaintext %q does not start with sd_%s_", key.Plaintext, key.Prefix)
	}
	if len(key.Prefix) != 8 {
		t.Errorf("prefix length = %d, want 8", len(key.Prefix))
	}

	prefix, secret, err := ParseAPIKey(key.Plaintext)
	if err != nil {
		t.Fatalf("ParseAPIKey: %v", err)
	}
	if prefix != key.Prefix {
		t.Errorf("prefix = %q, want %q", prefix, key.Prefix)
	}
	if !VerifySecret(key.Hash, secret) {
		t.Error("VerifySecret rejected the generated secret")
	}
	if VerifySecret(key.Hash, secret+"x") {
		t.Error("VerifySecret accepted a wrong secret")
	}
	if strings.Contains(key.Hash, secret) {
		t.Error("hash contains the plaintext secret")
	}
}

func TestGenerateIsUnique(t *testing.T) {
	gen := NewKeyGenerator(bcrypt.MinCost)
	a, _ := gen.Generate()
	b, _ := gen.Generate()
	if a.Plaintext == b.Plaintext || a.Prefix == b.Prefix {
		t.Errorf("two keys collided: %q %q", a.Plaintext, b.Plaintext)
	}
}

func TestParseAPIKeyRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "sd", "sd_abc", "xx_abc_def", "sd__secret", "sd_abc_"} {
		if _, _, err := ParseAPIKey(raw); err == nil {
			t.Errorf("ParseAPIKey(%q) succeeded, want error", raw)
		}
	}
}

func TestParseAPIKeyKeepsUnderscoresInSecret(t *testing.T) {
	prefix, secret, err := ParseAPIKey("sd_0a1b2c3d_se_cr_et")
	if err != nil {
		t.Fatalf("ParseAPIKey: %v", err)
	}
	if prefix != "0a1b2c3d" || secret != "se_cr_et" {
		t.Errorf("got (%q, %q)", prefix, secret)
	}
}
