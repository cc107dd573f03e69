package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

var newMediaService = func(ctx context.Context, log *logger.Logger, cfg mediacloud.Config) (mediaRemote, error) {
	return mediacloud.NewService(ctx, log, cfg)
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorInvalidBaseURL      StorageProviderBootstrapErrorCode = "invalid_base_url"
	StorageProviderBootstrapErrorInvalidCredentials  StorageProviderBootstrapErrorCode = "invalid_credentials"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "media storage bootstrap failed"
	}
	return fmt.Sprintf(
		"media storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMediaRemote reads the media storage config from the environment and
// connects to it, classifying any failure for the boot log.
func resolveMediaRemote(ctx context.Context, log *logger.Logger) (mediaRemote, mediacloud.Config, error) {
	storageCfg, err := mediacloud.ResolveConfigFromEnv()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		logBootstrapFailure(log, "Media storage configuration invalid", storageCfg, classified)
		return nil, storageCfg, classified
	}

	log.Info(
		"Selecting media storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
		"bucket", storageCfg.Bucket,
		"credentials", storageCfg.CredentialsSource(),
	)

	remote, err := newMediaService(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		logBootstrapFailure(log, "Media storage bootstrap failed", storageCfg, classified)
		return nil, storageCfg, classified
	}
	return remote, storageCfg, nil
}

func logBootstrapFailure(log *logger.Logger, msg string, cfg mediacloud.Config, err error) {
	log.Error(
		msg,
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"compatibility_fallback", cfg.CompatibilityFallback,
		"emulator_host", cfg.EmulatorHost,
		"error_code", storageProviderBootstrapErrorCode(err),
		"error", err,
	)
}

func classifyStorageProviderBootstrapError(storageCfg mediacloud.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *mediacloud.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case mediacloud.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case mediacloud.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case mediacloud.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case mediacloud.ConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case mediacloud.ConfigErrorInvalidBaseURL:
			code = StorageProviderBootstrapErrorInvalidBaseURL
		case mediacloud.ConfigErrorInvalidCredentials:
			code = StorageProviderBootstrapErrorInvalidCredentials
		}
	}
	mode := string(storageCfg.Mode)
	if cfgErr != nil && cfgErr.Mode != "" {
		mode = cfgErr.Mode
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
