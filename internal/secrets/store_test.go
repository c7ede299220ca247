package secrets

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tok, err := FetchToken()
	if err != nil {
		t.Fatalf("fetch on empty store: %v", err)
	}
	if tok != "" {
		t.Fatalf("expected no token, got %q", tok)
	}

	if err := StoreToken("jwt-abc.def.ghi"); err != nil {
		t.Fatalf("store: %v", err)
	}
	tok, err = FetchToken()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tok != "jwt-abc.def.ghi" {
		t.Fatalf("round trip got %q", tok)
	}

	if err := DeleteToken(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tok, err = FetchToken()
	if err != nil || tok != "" {
		t.Fatalf("after delete: %q, %v", tok, err)
	}
}
