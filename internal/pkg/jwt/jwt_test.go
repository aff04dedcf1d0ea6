// internal/pkg/jwt/jwt_test.go
package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"caseflow-service/internal/domain/notification"
)

func newTestPair(t *testing.T) (*Generator, *Verifier) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	gen := NewGenerator(priv, "caseflow-app", "caseflow-users", "caseflow-key", time.Hour)
	ver := NewVerifier(&priv.PublicKey, "caseflow-app", "caseflow-users")
	return gen, ver
}

func TestAccessTokenRoundTrip(t *testing.T) {
	gen, ver := newTestPair(t)

	token, jti, err := gen.GenerateAccessToken("cit-1", "citizen", "web")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if jti == "" {
		t.Error("expected a token id")
	}

	claims, err := ver.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "cit-1" {
		t.Errorf("user_id = %s, want cit-1", claims.UserID)
	}
	if claims.ID != jti {
		t.Errorf("jti = %s, want %s", claims.ID, jti)
	}
	if claims.Device != "web" {
		t.Errorf("device = %s, want web", claims.Device)
	}

	// The auth subsystem issues lowercase role names; the enum mapping must
	// absorb that.
	role, ok := claims.RecipientType()
	if !ok || role != notification.RecipientCitizen {
		t.Errorf("recipient type = %s %v, want CITIZEN", role, ok)
	}
}

func TestVerifyAccessTokenRejectsOtherPurposes(t *testing.T) {
	gen, ver := newTestPair(t)

	token, _, err := gen.Generate("cit-1", "citizen", "web", "refresh", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// The generic verifier accepts it, the access gate does not.
	if _, err := ver.Verify(token); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := ver.VerifyAccessToken(token); err == nil {
		t.Fatal("refresh token must not pass the access gate")
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	gen, _ := newTestPair(t)

	t.Run("wrong audience", func(t *testing.T) {
		token, _, err := gen.GenerateAccessToken("cit-1", "citizen", "web")
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}

		other := NewVerifier(genPublicKey(gen), "caseflow-app", "other-audience")
		if _, err := other.Verify(token); err == nil {
			t.Fatal("token for another audience must be rejected")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _, err := gen.GenerateAccessToken("cit-1", "citizen", "web")
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}

		other := NewVerifier(genPublicKey(gen), "other-app", "caseflow-users")
		if _, err := other.Verify(token); err == nil {
			t.Fatal("token from another issuer must be rejected")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		_, ver := newTestPair(t)
		foreignGen, _ := newTestPair(t)

		token, _, err := foreignGen.GenerateAccessToken("cit-1", "citizen", "web")
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		if _, err := ver.Verify(token); err == nil {
			t.Fatal("token signed with another key must be rejected")
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		gen, ver := newTestPair(t)
		token, _, err := gen.GenerateAccessToken("cit-1", "citizen", "web")
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}

		parts := strings.Split(token, ".")
		tampered := parts[0] + ".eyJ1c2VyX2lkIjoianVkLTEifQ." + parts[2]
		if _, err := ver.Verify(tampered); err == nil {
			t.Fatal("tampered token must be rejected")
		}
	})
}

func TestRecipientTypeRejectsUnknownRole(t *testing.T) {
	gen, ver := newTestPair(t)

	token, _, err := gen.GenerateAccessToken("adm-1", "admin", "web")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ver.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if _, ok := claims.RecipientType(); ok {
		t.Fatal("role outside the recipient enum must not map")
	}
}

func TestLoadAndBuildFromPEM(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o600); err != nil {
		t.Fatalf("write public key: %v", err)
	}

	cfg := Config{
		PrivPath: privPath,
		PubPath:  pubPath,
		Issuer:   "caseflow-app",
		Audience: "caseflow-users",
		TTL:      time.Hour,
		KID:      "caseflow-key",
	}

	mgr, err := LoadAndBuild(cfg)
	if err != nil {
		t.Fatalf("LoadAndBuild: %v", err)
	}

	token, _, err := mgr.Generator.GenerateAccessToken("jud-1", "judge", "web")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := mgr.Verifier.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "jud-1" {
		t.Errorf("user_id = %s, want jud-1", claims.UserID)
	}

	// The verify-only production path loads the same public key.
	ver, err := LoadVerifier(cfg)
	if err != nil {
		t.Fatalf("LoadVerifier: %v", err)
	}
	if _, err := ver.VerifyAccessToken(token); err != nil {
		t.Fatalf("verify-only VerifyAccessToken: %v", err)
	}
}

func genPublicKey(g *Generator) *rsa.PublicKey {
	return &g.priv.PublicKey
}
