package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dentalex/api/internal/store"
)

func newTestServer(fs *fakeStore) *HTTPServer {
	svc, _, _ := newTestService(fs)
	return NewHTTPServer(svc, "*")
}

func bearerFor(t *testing.T, role string) string {
	t.Helper()
	fs := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, DisplayName: "Test User", Role: role, PreferredLocale: "en"}, nil
		},
	}
	svc := New(testConfig(), Deps{Store: fs, Sessions: &fakeSessions{users: map[string]store.User{}}})
	session, err := svc.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return "Bearer " + session.Token
}

func doRequest(server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeStore{})
	resp := doRequest(server, http.MethodGet, "/api/health", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	server := newTestServer(&fakeStore{})
	for _, path := range []string{"/api/terms", "/api/categories", "/api/favorites"} {
		resp := doRequest(server, http.MethodGet, path, "", "")
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", path, resp.Code)
		}
	}
}

func TestPublicTermsNeedNoSession(t *testing.T) {
	server := newTestServer(&fakeStore{
		listPublishedTermRows: func(ctx context.Context, categoryID, labelID string) ([]store.PublishedTermRow, error) {
			return []store.PublishedTermRow{
				{TermID: "term_1", Identifier: "molar", LanguageCode: "en", Name: "Molar"},
			}, nil
		},
	})
	resp := doRequest(server, http.MethodGet, "/api/public/terms?locale=en", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	terms := body["terms"].([]any)
	if len(terms) != 1 {
		t.Fatalf("terms = %v", terms)
	}
}

func TestViewerCannotCreateTerms(t *testing.T) {
	server := newTestServer(&fakeStore{})
	token := bearerFor(t, "viewer")
	resp := doRequest(server, http.MethodPost, "/api/terms", token, `{"identifier":"molar"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestEditorCannotPublish(t *testing.T) {
	server := newTestServer(&fakeStore{})
	token := bearerFor(t, "editor")
	resp := doRequest(server, http.MethodPost, "/api/versions/ver_1/publish", token, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestTermNotFoundMapsTo404(t *testing.T) {
	server := newTestServer(&fakeStore{})
	token := bearerFor(t, "viewer")
	resp := doRequest(server, http.MethodGet, "/api/terms/term_missing", token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "NOT_FOUND" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestSaveDraftValidationDetailsOnTheWire(t *testing.T) {
	server := newTestServer(&fakeStore{
		getTermVersion: func(ctx context.Context, versionID string) (store.TermVersion, error) {
			return store.TermVersion{ID: versionID, TermID: "term_1", Status: "DRAFT"}, nil
		},
	})
	token := bearerFor(t, "editor")
	resp := doRequest(server, http.MethodPut, "/api/versions/ver_1", token,
		`{"translations":[{"languageCode":"en","name":""}]}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Fatalf("code = %v", body["code"])
	}
	details := body["details"].(map[string]any)
	if _, ok := details["en"]; !ok {
		t.Fatalf("details = %v", details)
	}
}

func TestSessionEndpointWithoutToken(t *testing.T) {
	server := newTestServer(&fakeStore{})
	resp := doRequest(server, http.MethodGet, "/api/session", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["authenticated"] != false {
		t.Fatalf("body = %v", body)
	}
}

func TestSearchLanguageFilter(t *testing.T) {
	svc, _, idx := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	// A signed-in editor with a Latvian locale.
	fs := &fakeStore{
		getUserByID: func(ctx context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, DisplayName: "Test User", Role: "editor", PreferredLocale: "lv"}, nil
		},
	}
	issuer := New(testConfig(), Deps{Store: fs, Sessions: &fakeSessions{users: map[string]store.User{}}})
	session, err := issuer.CreateSession(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	token := "Bearer " + session.Token

	t.Run("editorial search spans all languages by default", func(t *testing.T) {
		resp := doRequest(server, http.MethodGet, "/api/search?q=tooth", token, "")
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d", resp.Code)
		}
		q := idx.queries[len(idx.queries)-1]
		if q.FilterLanguage != "" {
			t.Fatalf("language filter = %q, want none", q.FilterLanguage)
		}
	})

	t.Run("explicit language parameter narrows the search", func(t *testing.T) {
		resp := doRequest(server, http.MethodGet, "/api/search?q=tooth&language=de", token, "")
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d", resp.Code)
		}
		q := idx.queries[len(idx.queries)-1]
		if q.FilterLanguage != "de" {
			t.Fatalf("language filter = %q, want %q", q.FilterLanguage, "de")
		}
	})

	t.Run("public search defaults to the requested locale", func(t *testing.T) {
		resp := doRequest(server, http.MethodGet, "/api/public/search?q=zobs&locale=lv", "", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d", resp.Code)
		}
		q := idx.queries[len(idx.queries)-1]
		if q.FilterLanguage != "lv" {
			t.Fatalf("language filter = %q, want %q", q.FilterLanguage, "lv")
		}
	})
}

func TestUnknownRouteIs404(t *testing.T) {
	server := newTestServer(&fakeStore{})
	token := bearerFor(t, "admin")
	resp := doRequest(server, http.MethodGet, "/api/nope", token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
}
