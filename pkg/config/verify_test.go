package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "missing listen", modify: func(c *Config) { c.Server.Listen = "" }, wantErr: true, errMsg: "server.listen is required"},
		{name: "missing timeout", modify: func(c *Config) { c.Server.Timeout = 0 }, wantErr: true, errMsg: "server.timeout is required"},
		{name: "missing service", modify: func(c *Config) { c.Bluesky.Service = "" }, wantErr: true, errMsg: "bluesky.service is required"},
		{name: "missing dsn", modify: func(c *Config) { c.Database.DSN = "" }, wantErr: true, errMsg: "database.dsn is required"},
		{name: "missing widget source", modify: func(c *Config) { c.Widget.SourceURL = "" }, wantErr: true,
			errMsg: "widget.source_url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := VerifyAgainstEmbeddedSchema(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEmbeddedSchemaInSync(t *testing.T) {
	generated, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, generated)

	var embedded struct {
		Defs map[string]struct {
			Properties map[string]any `json:"properties"`
		} `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &embedded))

	for name, def := range generated.Definitions {
		emb, ok := embedded.Defs[name]
		require.True(t, ok, "definition %s missing from schema.json, run go generate", name)
		for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
			_, ok := emb.Properties[pair.Key]
			assert.True(t, ok, "property %s.%s missing from schema.json", name, pair.Key)
		}
	}
}

func TestAppPasswordNotExported(t *testing.T) {
	cfg := validConfig()
	cfg.Bluesky.AppPassword = "secret-password"
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-password")

	assert.NotContains(t, embeddedSchema, "app_password")
}
