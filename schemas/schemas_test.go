package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/match-auditor/internal/schemas"
)

func TestAuditConfigSchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "audit_config.schema.json"))
	require.NoError(t, err, "should be able to read schema file")

	var v interface{}
	err = json.Unmarshal(data, &v)
	assert.NoError(t, err, "schema file should be valid JSON")
}

func TestAuditConfigSchema_AcceptsFullConfig(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "audit_config.schema.json"))
	require.NoError(t, err)

	doc := `{
		"input": "matches.csv",
		"output_base": "audit/itf_audit",
		"min_delay_ms": 400,
		"max_delay_ms": 800,
		"max_attempts": 3,
		"backoff_base_ms": 2000,
		"fetch_timeout_sec": 45,
		"database_url": "postgres://localhost/auditor",
		"cache_ttl_hours": 168,
		"verbose": false
	}`
	assert.NoError(t, schemas.ValidateJSONString(string(data), doc))
}

func TestAuditConfigSchema_RejectsUnknownKey(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "audit_config.schema.json"))
	require.NoError(t, err)

	err = schemas.ValidateJSONString(string(data), `{"shards": 4}`)
	assert.Error(t, err)
}

func TestAuditConfigSchema_RejectsWrongTypes(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "audit_config.schema.json"))
	require.NoError(t, err)

	err = schemas.ValidateJSONString(string(data), `{"max_attempts": "three"}`)
	assert.Error(t, err)
}
