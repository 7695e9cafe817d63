package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokoerp/etims-bridge/interfaces"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  mode: sandbox
  tin: P000000000X
  branch_id: "00"
  key_source: env://ETIMS_DEVICE_KEY
  timeout: 45s
  base_urls:
    sandbox: http://localhost:9000/etims/api/
audit:
  backends:
    - file:///var/lib/etims/audit
    - s3://audit-bucket/etims?region=eu-west-1
log:
  json: true
  debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, interfaces.ModeSandbox, cfg.Mode)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "http://localhost:9000/etims/api/", cfg.BaseURLs[interfaces.ModeSandbox])
	assert.Len(t, cfg.AuditLocations(), 2)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadResolvesCredentials(t *testing.T) {
	t.Setenv("ETIMS_DEVICE_KEY", "resolved-key")
	path := writeConfig(t, `
device:
  mode: sandbox
  tin: P000000000X
  branch_id: "00"
  key_source: env://ETIMS_DEVICE_KEY
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	creds, err := cfg.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resolved-key", creds.Key)
	assert.Equal(t, "P000000000X", creds.TIN)
}

func TestLoadSimulationNeedsNoKey(t *testing.T) {
	path := writeConfig(t, `
device:
  mode: simulation
  tin: P000000000X
  branch_id: "00"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	creds, err := cfg.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, interfaces.ModeSimulation, creds.Mode)
	assert.Empty(t, creds.Key)
}

func TestLoadRejectsMissingKeySource(t *testing.T) {
	path := writeConfig(t, `
device:
  mode: production
  tin: P000000000X
  branch_id: "00"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "key_source")
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, `
device:
  mode: staging
  tin: P000000000X
  branch_id: "00"
  key_source: k
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "mode")
}

func TestLoadRejectsMissingIdentity(t *testing.T) {
	path := writeConfig(t, `
device:
  mode: simulation
  branch_id: "00"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "tin")
}
