package mediacloud

import (
	"errors"
	"testing"
	"time"
)

func setStorageEnv(t *testing.T, mode, emulator, bucket string) {
	t.Helper()
	t.Setenv("OBJECT_STORAGE_MODE", mode)
	t.Setenv("STORAGE_EMULATOR_HOST", emulator)
	t.Setenv("MEDIA_GCS_BUCKET_NAME", bucket)
	t.Setenv("MEDIA_FOLDER", "")
	t.Setenv("MEDIA_DELIVERY_BASE_URL", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("MEDIA_UPLOAD_TIMEOUT_SECONDS", "")
	t.Setenv("MEDIA_DESTROY_TIMEOUT_SECONDS", "")
	t.Setenv("MEDIA_LIST_TIMEOUT_SECONDS", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
}

func TestResolveConfigFromEnvDefaultGCS(t *testing.T) {
	setStorageEnv(t, "", "", "media-bucket")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCS, cfg.Mode)
	}
	if cfg.CompatibilityFallback {
		t.Fatalf("compatibility fallback: want=false got=true")
	}
	if cfg.UploadTimeout != defaultUploadTimeout || cfg.DestroyTimeout != defaultDestroyTimeout || cfg.ListTimeout != defaultListTimeout {
		t.Fatalf("timeouts: got upload=%s destroy=%s list=%s", cfg.UploadTimeout, cfg.DestroyTimeout, cfg.ListTimeout)
	}
	if got := cfg.CredentialsSource(); got != "default" {
		t.Fatalf("CredentialsSource: want=%q got=%q", "default", got)
	}
}

func TestResolveConfigFromEnvCompatibilityFallback(t *testing.T) {
	setStorageEnv(t, "", "http://fake-gcs:4443", "media-bucket")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCSEmulator, cfg.Mode)
	}
	if got := cfg.ModeSource(); got != "compatibility_fallback" {
		t.Fatalf("ModeSource: want=%q got=%q", "compatibility_fallback", got)
	}
}

func TestResolveConfigFromEnvReadsDeliverySettings(t *testing.T) {
	setStorageEnv(t, "gcs", "", "media-bucket")
	t.Setenv("MEDIA_FOLDER", "/uploads/")
	t.Setenv("MEDIA_DELIVERY_BASE_URL", "https://res.cloudinary.com/neurobridge/")
	t.Setenv("MEDIA_DESTROY_TIMEOUT_SECONDS", "5")
	t.Setenv("MEDIA_LIST_TIMEOUT_SECONDS", "12")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Folder != "uploads" {
		t.Fatalf("folder: want=%q got=%q", "uploads", cfg.Folder)
	}
	if cfg.DeliveryBaseURL != "https://res.cloudinary.com/neurobridge" {
		t.Fatalf("delivery base: got=%q", cfg.DeliveryBaseURL)
	}
	if cfg.DestroyTimeout != 5*time.Second {
		t.Fatalf("destroy timeout: want=5s got=%s", cfg.DestroyTimeout)
	}
	if cfg.ListTimeout != 12*time.Second {
		t.Fatalf("list timeout: want=12s got=%s", cfg.ListTimeout)
	}
}

func TestResolveConfigFromEnvCredentials(t *testing.T) {
	setStorageEnv(t, "gcs", "", "media-bucket")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/key.json")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if got := cfg.CredentialsSource(); got != "file" {
		t.Fatalf("CredentialsSource: want=%q got=%q", "file", got)
	}
	if n := len(cfg.ClientOptions()); n != 2 {
		t.Fatalf("ClientOptions: want scope+key got=%d", n)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)
	cfg, err = ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if got := cfg.CredentialsSource(); got != "inline" {
		t.Fatalf("inline JSON should win over a key file; got=%q", got)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":`)
	_, err = ResolveConfigFromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ConfigErrorInvalidCredentials {
		t.Fatalf("malformed inline key: want %q got=%v", ConfigErrorInvalidCredentials, err)
	}
}

func TestClientOptionsEmulatorIgnoresCredentials(t *testing.T) {
	cfg := Config{Mode: StorageModeGCSEmulator, Credentials: `{"type":`}
	if got := cfg.CredentialsSource(); got != "emulator" {
		t.Fatalf("CredentialsSource: want=%q got=%q", "emulator", got)
	}
	if n := len(cfg.ClientOptions()); n != 1 {
		t.Fatalf("ClientOptions: want only WithoutAuthentication got=%d", n)
	}
	cfg.EmulatorHost, cfg.Bucket = "http://fake-gcs:4443", "b"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig: emulator should not validate credentials: %v", err)
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		emulator string
		bucket   string
		delivery string
		want     ConfigErrorCode
	}{
		{name: "invalid mode", mode: "local", bucket: "b", want: ConfigErrorInvalidMode},
		{name: "missing bucket", mode: "gcs", want: ConfigErrorMissingBucket},
		{name: "missing emulator host", mode: "gcs_emulator", bucket: "b", want: ConfigErrorMissingEmulatorHost},
		{name: "invalid emulator host", mode: "gcs_emulator", emulator: "fake-gcs:4443", bucket: "b", want: ConfigErrorInvalidEmulatorHost},
		{name: "relative delivery url", mode: "gcs", bucket: "b", delivery: "media.example.com", want: ConfigErrorInvalidBaseURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setStorageEnv(t, tc.mode, tc.emulator, tc.bucket)
			t.Setenv("MEDIA_DELIVERY_BASE_URL", tc.delivery)

			_, err := ResolveConfigFromEnv()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
		})
	}
}
