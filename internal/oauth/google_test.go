package oauth_test

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ashisharjun12/devfinder-final/internal/oauth"
)

func TestState(t *testing.T) {
	g := oauth.NewGoogle("cid", "sec", "http://localhost/cb", "state-key")
	s := g.NewState()
	if !g.VerifyState(s) {
		t.Fatalf("own state rejected: %s", s)
	}
	if g.VerifyState(s + "x") {
		t.Fatal("tampered state accepted")
	}
	if g.VerifyState("nodot") {
		t.Fatal("unsigned state accepted")
	}
	other := oauth.NewGoogle("cid", "sec", "http://localhost/cb", "other-key")
	if other.VerifyState(s) {
		t.Fatal("state from another key accepted")
	}
	if u := g.AuthURL(s); !strings.Contains(u, "client_id=cid") {
		t.Fatalf("auth url: %s", u)
	}
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseIDToken(t *testing.T) {
	ok := idToken(t, jwt.MapClaims{
		"iss": "https://accounts.google.com", "aud": "cid", "sub": "123",
		"email": "dev@example.com", "email_verified": true, "name": "Dev",
	})
	u, err := oauth.ParseIDToken(ok, "cid")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "dev@example.com" || u.Name != "Dev" || !u.EmailVerified {
		t.Fatalf("user: %#v", u)
	}

	if _, err := oauth.ParseIDToken(ok, "other"); err == nil {
		t.Fatal("bad aud accepted")
	}
	badIss := idToken(t, jwt.MapClaims{"iss": "evil", "aud": "cid", "sub": "1", "email": "a@b.c"})
	if _, err := oauth.ParseIDToken(badIss, "cid"); err == nil {
		t.Fatal("bad iss accepted")
	}
	noEmail := idToken(t, jwt.MapClaims{"iss": "accounts.google.com", "aud": "cid", "sub": "1"})
	if _, err := oauth.ParseIDToken(noEmail, "cid"); err == nil {
		t.Fatal("missing email accepted")
	}
}
