package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	a := NewAuthenticator("test-secret")
	tok, err := a.Sign("p123", "participant", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Subject != "p123" || c.Role != "participant" {
		t.Fatalf("claims = %+v", c)
	}
	if _, err := NewAuthenticator("other").Parse(tok); err == nil {
		t.Fatalf("token verified with wrong secret")
	}
}

func TestParseExpired(t *testing.T) {
	a := NewAuthenticator("s")
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _ := a.Sign("p1", "participant", time.Hour)
	a.now = time.Now
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestRequireRole(t *testing.T) {
	a := NewAuthenticator("s")
	var gotSubject string
	h := a.WithAuth(RequireRole("researcher", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
	})))

	participant, _ := a.Sign("p1", "participant", time.Hour)
	researcher, _ := a.Sign("lead@study.org", "researcher", time.Hour)
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + participant, http.StatusForbidden},
		{"ok", "Bearer " + researcher, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/researcher/export", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
	if gotSubject != "lead@study.org" {
		t.Fatalf("subject = %q", gotSubject)
	}
}

func TestRequireRoleLocalizedJSON(t *testing.T) {
	a := NewAuthenticator("s")
	h := Locale(a.WithAuth(RequireRole("researcher", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))))
	participant, _ := a.Sign("p1", "participant", time.Hour)

	cases := []struct {
		name    string
		header  string
		lang    string
		status  int
		code    string
		message string
	}{
		{"missing en", "", "en", http.StatusUnauthorized, "unauthorized", "unauthorized"},
		{"missing zh", "", "zh", http.StatusUnauthorized, "unauthorized", "未授权"},
		{"wrong role zh", "Bearer " + participant, "zh", http.StatusForbidden, "forbidden", "无权访问"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/researcher/export?lang="+tc.lang, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.status)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s: content type = %q", tc.name, ct)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body["error"] != tc.code || body["message"] != tc.message {
			t.Fatalf("%s: body = %v", tc.name, body)
		}
	}
}
