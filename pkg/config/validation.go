package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/nbcontents/pkg/contents"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}
	return nil
}

// validateCustomRules performs validation that cannot be expressed in tags.
func validateCustomRules(cfg *Config) error {
	if _, err := contents.CompileHideGlobs(cfg.Contents.HideGlobs); err != nil {
		return fmt.Errorf("contents.hide_globs: %w", err)
	}

	switch cfg.Backend.Type {
	case "s3":
		if _, ok := cfg.Backend.S3["bucket"]; !ok {
			return fmt.Errorf("backend.s3: bucket is required")
		}
	case "minio":
		if _, ok := cfg.Backend.Minio["bucket"]; !ok {
			return fmt.Errorf("backend.minio: bucket is required")
		}
		if _, ok := cfg.Backend.Minio["endpoint"]; !ok {
			return fmt.Errorf("backend.minio: endpoint is required")
		}
	}

	if cfg.Metrics.Port != 0 && !cfg.Metrics.Enabled {
		return fmt.Errorf("metrics: port is set but metrics are disabled")
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
