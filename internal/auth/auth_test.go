package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const secret = "test-secret"

func TestAdminTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAdminToken(secret, "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ValidateToken(secret, tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "admin" || claims.Purpose != PurposeAdmin {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := ValidateToken("other", tok); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestExpiredToken(t *testing.T) {
	tok, err := GenerateAdminToken(secret, "admin", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(secret, tok); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestValidateDownload(t *testing.T) {
	link, _ := GenerateDownloadToken(secret, "a.docx", time.Hour)
	admin, _ := GenerateAdminToken(secret, "admin", time.Hour)

	tests := []struct {
		name, token, key string
		ok               bool
	}{
		{"matching key", link, "a.docx", true},
		{"other key", link, "b.docx", false},
		{"admin token", admin, "b.docx", true},
		{"garbage", "nope", "a.docx", false},
	}
	for _, tt := range tests {
		err := ValidateDownload(secret, tt.token, tt.key)
		if (err == nil) != tt.ok {
			t.Errorf("%s: err = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatal("password should match")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("wrong password matched")
	}
}

func TestMiddleware(t *testing.T) {
	h := Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			t.Error("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	admin, _ := GenerateAdminToken(secret, "admin", time.Hour)
	link, _ := GenerateDownloadToken(secret, "a.docx", time.Hour)

	for _, tc := range []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer " + link, http.StatusUnauthorized},
		{"Bearer " + admin, http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("header %q: status %d, want %d", tc.header, rec.Code, tc.want)
		}
	}
}
