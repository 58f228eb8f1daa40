package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/thanitrachkul/NPSS/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("st-1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Sub != "st-1" || c.Role != "student" {
		t.Fatalf("claims = %+v", c)
	}

	// A token signed with another secret is rejected.
	other := NewAuthService("other-secret")
	if _, err := other.Parse(tok); err == nil {
		t.Fatalf("expected parse error for wrong secret")
	}
}

func TestJWTMiddlewareAttachesIdentity(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("reg-1", "registrar")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/students", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status %d", w.Code)
	}
	if gotSub != "reg-1" || gotRole != "registrar" {
		t.Fatalf("identity = %q/%q", gotSub, gotRole)
	}

	// Missing and malformed bearer both get 401.
	req = httptest.NewRequest("GET", "/students", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: status %d", w.Code)
	}
	req = httptest.NewRequest("GET", "/students", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", w.Code)
	}
}

func TestCredentialCheckerAdminFallback(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := &CredentialChecker{AdminUser: "admin", AdminPassHash: string(hash)}

	role, ok := creds.Check("admin", "changeme")
	if !ok || role != "admin" {
		t.Fatalf("admin login = %q/%v", role, ok)
	}
	if _, ok := creds.Check("admin", "wrong"); ok {
		t.Fatalf("wrong password accepted")
	}
	if _, ok := creds.Check("someone", "changeme"); ok {
		t.Fatalf("unknown user accepted")
	}
}
