package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/volbridge/pkg/volume/backends"
)

var validate = validator.New()

// Validate checks struct tags and the rules that tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if len(cfg.Shares) == 0 {
		return fmt.Errorf("shares: at least one share must be configured")
	}

	names := make(map[string]bool, len(cfg.Shares))
	for i, share := range cfg.Shares {
		if names[share.Name] {
			return fmt.Errorf("shares[%d]: duplicate share name %q", i, share.Name)
		}
		names[share.Name] = true

		if !backends.Known(share.Backend) {
			return fmt.Errorf("shares[%d]: unknown backend %q (want one of %s)",
				i, share.Backend, strings.Join(backends.Names(), ", "))
		}
	}

	if cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics.port: %d is already used by the api", cfg.Metrics.Port)
	}
	return nil
}

// formatValidationError reports the first failed field with its tag.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
