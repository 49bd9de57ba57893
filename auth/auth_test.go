package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func tokenServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"` + token + `","token_type":"bearer","expires_in":3600}`)); err != nil {
			t.Errorf("write token: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetTokenAndSetAuthHeader(t *testing.T) {
	srv := tokenServer(t, "token123")
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL})

	token, err := client.GetToken()
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token != "token123" {
		t.Fatalf("unexpected token %s", token)
	}

	// A valid cached token is reused.
	again, err := client.GetToken()
	if err != nil || again != token {
		t.Fatalf("cached token not reused: %v %s", err, again)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err := client.SetAuthHeader(req); err != nil {
		t.Fatalf("set auth header: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer token123" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
}

func TestForceRefresh(t *testing.T) {
	srv := tokenServer(t, "fresh")
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL})
	token, err := client.ForceRefresh()
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if token != "fresh" {
		t.Fatalf("unexpected token %s", token)
	}
}

func TestGetTokenEndpointDown(t *testing.T) {
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: "http://127.0.0.1:1"})
	if _, err := client.GetToken(); err == nil {
		t.Fatal("expected error from unreachable endpoint")
	}
}
