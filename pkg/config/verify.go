package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema checks the config against the embedded JSON schema:
// every schema section is present and the required fields are set
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema struct {
		Ref         string                     `json:"$ref"`
		Definitions map[string]json.RawMessage `json:"$defs"`
	}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	var root struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if rootDef, ok := schema.Definitions["Config"]; ok {
		if err := json.Unmarshal(rootDef, &root); err != nil {
			return fmt.Errorf("parse config definition: %w", err)
		}
	}
	for section := range root.Properties {
		if _, ok := configMap[section]; !ok {
			return fmt.Errorf("section %q missing from config", section)
		}
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	if cfg.Server.Timeout == 0 {
		return errors.New("server.timeout is required")
	}
	if cfg.Bluesky.Service == "" {
		return errors.New("bluesky.service is required")
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Widget.SourceURL == "" {
		return errors.New("widget.source_url is required")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
