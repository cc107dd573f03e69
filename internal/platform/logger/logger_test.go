package logger

import "testing"

func TestSanitizeValueRedactsCredentialKeys(t *testing.T) {
	for _, key := range []string{"api_secret", "authorization", "url_signature", "access_token"} {
		if got := sanitizeValue(key, "abc"); got != "[REDACTED]" {
			t.Fatalf("sanitizeValue(%q): want=%q got=%v", key, "[REDACTED]", got)
		}
	}
}

func TestSanitizeValueHashesOwnerIDs(t *testing.T) {
	got, ok := sanitizeValue("owner_id", "7f1c").(string)
	if !ok {
		t.Fatalf("sanitizeValue: want string")
	}
	if len(got) != len("hash:")+12 || got[:5] != "hash:" {
		t.Fatalf("sanitizeValue: unexpected hash %q", got)
	}
	if again := sanitizeValue("owner_id", "7f1c"); again != got {
		t.Fatalf("sanitizeValue: want stable hash, got %q then %q", got, again)
	}
}

func TestSanitizeValueLeavesPublicIDs(t *testing.T) {
	if got := sanitizeValue("public_id", "v12/avatars/abc"); got != "v12/avatars/abc" {
		t.Fatalf("sanitizeValue: want passthrough got=%v", got)
	}
}
