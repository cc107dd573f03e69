package mediacloud

import (
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// credentialsFromEnv prefers an inline JSON key over a key file path.
func credentialsFromEnv() string {
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); creds != "" {
		return creds
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}

// CredentialsSource names where the storage client gets its identity from:
// "emulator", "inline", "file" or "default".
func (cfg Config) CredentialsSource() string {
	switch {
	case cfg.IsEmulatorMode():
		return "emulator"
	case cfg.Credentials == "":
		return "default"
	case strings.HasPrefix(cfg.Credentials, "{"):
		return "inline"
	default:
		return "file"
	}
}

// ClientOptions returns the storage client options for cfg. The emulator
// runs unauthenticated; GCS gets a read-write scope plus any configured key.
func (cfg Config) ClientOptions() []option.ClientOption {
	switch cfg.CredentialsSource() {
	case "emulator":
		return []option.ClientOption{option.WithoutAuthentication()}
	case "inline":
		return []option.ClientOption{
			option.WithScopes(storage.ScopeReadWrite),
			option.WithCredentialsJSON([]byte(cfg.Credentials)),
		}
	case "file":
		return []option.ClientOption{
			option.WithScopes(storage.ScopeReadWrite),
			option.WithCredentialsFile(cfg.Credentials),
		}
	default:
		return []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	}
}
