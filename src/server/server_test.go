package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"papertrader/src/security"
)

func TestHealthcheckIsPublic(t *testing.T) {
	t.Setenv("API_TOKEN_HASH", "")

	server := httptest.NewServer(newRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("healthcheck request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if string(body) != "OK" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestTradingRoutesRequireToken(t *testing.T) {
	hash, err := security.HashToken("paper-secret")
	if err != nil {
		t.Fatalf("failed to hash token: %v", err)
	}
	t.Setenv("API_TOKEN_HASH", hash)

	server := httptest.NewServer(newRouter())
	defer server.Close()

	for _, path := range []string{"/paper/summary", "/trades/recent", "/performance"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("request to %s failed: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status 401 for %s, got %d", path, resp.StatusCode)
		}
	}
}
