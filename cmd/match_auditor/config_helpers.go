package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/match-auditor/internal/config"
	"github.com/jonathan/match-auditor/internal/schemas"
)

// configDefaults are the built-in values applied after config file and flag
// merging.
var configDefaults = config.Config{
	OutputBase:      "itf_audit",
	MinDelayMs:      400,
	MaxDelayMs:      800,
	MaxAttempts:     3,
	BackoffBaseMs:   2000,
	FetchTimeoutSec: 45,
	CacheTTLHours:   168,
}

// loadConfigFile loads and validates a JSON config file, checking it against
// the audit_config schema first when the schema can be found.
func loadConfigFile(path string) (config.Config, error) {
	schemaPath := schemas.ResolveSchemaPath("schemas/audit_config.schema.json")
	if schemaPath != "" {
		if err := schemas.ValidateJSON(schemaPath, path); err != nil {
			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				return config.Config{}, fmt.Errorf("config file does not validate against schema: %w", err)
			}
			// Schema loading trouble is not the config file's fault.
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Could not validate config against schema: %v\n", err)
		}
	}

	loaded, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return config.Config{}, err
	}
	return *loaded, nil
}
