package mediacloud

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

const (
	defaultUploadTimeout  = 2 * time.Minute
	defaultDestroyTimeout = 30 * time.Second
	defaultListTimeout    = time.Minute
)

// Config describes the origin bucket and how delivery URLs are built.
type Config struct {
	Mode                  StorageMode
	EmulatorHost          string
	CompatibilityFallback bool

	Bucket string
	// Folder is prepended to every public id when forming object keys.
	Folder string
	// DeliveryBaseURL points at a transformation-capable CDN, e.g.
	// https://res.cloudinary.com/<cloud>. Empty means flat object URLs.
	DeliveryBaseURL string
	// PublicBaseURL overrides the host used for flat object URLs.
	PublicBaseURL string

	// Credentials is a service-account key, inline JSON or a file path.
	// Empty means application default credentials. Ignored by the emulator.
	Credentials string

	UploadTimeout  time.Duration
	DestroyTimeout time.Duration
	ListTimeout    time.Duration
}

func IsSupportedStorageMode(mode StorageMode) bool {
	switch mode {
	case StorageModeGCS, StorageModeGCSEmulator:
		return true
	default:
		return false
	}
}

func (cfg Config) IsEmulatorMode() bool {
	return cfg.Mode == StorageModeGCSEmulator
}

func (cfg Config) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorInvalidBaseURL      ConfigErrorCode = "invalid_base_url"
	ConfigErrorInvalidCredentials  ConfigErrorCode = "invalid_credentials"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Mode  string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid media storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)",
			e.Mode,
			StorageModeGCS,
			StorageModeGCSEmulator,
		)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf(
			"OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set",
			StorageModeGCSEmulator,
		)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf(
			"invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443",
			e.Value,
		)
	case ConfigErrorMissingBucket:
		return "missing env var MEDIA_GCS_BUCKET_NAME"
	case ConfigErrorInvalidBaseURL:
		return fmt.Sprintf("invalid base URL %q; expected absolute URL like https://media.example.com", e.Value)
	case ConfigErrorInvalidCredentials:
		return "GOOGLE_APPLICATION_CREDENTIALS_JSON is not valid JSON"
	default:
		return "invalid media storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		EmulatorHost:    strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
		Bucket:          strings.TrimSpace(os.Getenv("MEDIA_GCS_BUCKET_NAME")),
		Folder:          strings.Trim(strings.TrimSpace(os.Getenv("MEDIA_FOLDER")), "/"),
		DeliveryBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("MEDIA_DELIVERY_BASE_URL")), "/"),
		PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")), "/"),
		UploadTimeout:   secondsFromEnv("MEDIA_UPLOAD_TIMEOUT_SECONDS", defaultUploadTimeout),
		DestroyTimeout:  secondsFromEnv("MEDIA_DESTROY_TIMEOUT_SECONDS", defaultDestroyTimeout),
		ListTimeout:     secondsFromEnv("MEDIA_LIST_TIMEOUT_SECONDS", defaultListTimeout),
		Credentials:     credentialsFromEnv(),
	}

	rawMode := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE"))
	switch mode := StorageMode(strings.ToLower(rawMode)); mode {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
			cfg.CompatibilityFallback = true
		} else {
			cfg.Mode = StorageModeGCS
		}
	case StorageModeGCS, StorageModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: rawMode}
	}

	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if !IsSupportedStorageMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
	}
	for _, raw := range []string{cfg.DeliveryBaseURL, cfg.PublicBaseURL} {
		if raw == "" {
			continue
		}
		if !isAbsoluteURL(raw) {
			return &ConfigError{Code: ConfigErrorInvalidBaseURL, Mode: string(cfg.Mode), Value: raw}
		}
	}
	if !cfg.IsEmulatorMode() {
		if cfg.CredentialsSource() == "inline" && !json.Valid([]byte(cfg.Credentials)) {
			return &ConfigError{Code: ConfigErrorInvalidCredentials, Mode: string(cfg.Mode)}
		}
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		_, cause := url.Parse(cfg.EmulatorHost)
		return &ConfigError{
			Code:  ConfigErrorInvalidEmulatorHost,
			Mode:  string(cfg.Mode),
			Value: cfg.EmulatorHost,
			Cause: cause,
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}

func secondsFromEnv(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
