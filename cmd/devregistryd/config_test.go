package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRejectsEmptyPath(t *testing.T) {
	_, err := loadConfig("")
	assert.ErrorIs(t, err, errConfigPathRequired)
}

func TestLoadConfigValidatesStoreSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"nats_url":""}}`), 0o600))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigAcceptsValidStoreSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	body := `{
		"store": {
			"nats_url": "nats://localhost:4222",
			"bucket": "devreg",
			"security": {
				"mode": "mtls",
				"tls": {
					"cert_file": "client.crt",
					"key_file": "client.key",
					"ca_file": "ca.crt"
				}
			}
		}
	}`

	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "devreg", cfg.Store.Bucket)
}
