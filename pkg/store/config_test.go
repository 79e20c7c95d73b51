package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		NATSURL: "nats://localhost:4222",
		Bucket:  "devreg",
		Security: &SecurityConfig{
			Mode: SecurityModeMTLS,
			TLS: TLSConfig{
				CertFile: "client.crt",
				KeyFile:  "client.key",
				CAFile:   "ca.crt",
			},
		},
	}
}

func TestConfigValidateRequiresNATSURL(t *testing.T) {
	cfg := validConfig()
	cfg.NATSURL = ""

	assert.ErrorIs(t, cfg.Validate(), errNATSURLRequired)
}

func TestConfigValidateRequiresBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Bucket = ""

	assert.ErrorIs(t, cfg.Validate(), errBucketRequired)
}

func TestConfigValidateRequiresMTLSSecurity(t *testing.T) {
	cfg := validConfig()
	cfg.Security = nil

	assert.ErrorIs(t, cfg.Validate(), errSecurityRequired)
}

func TestConfigValidateRejectsNegativeBucketMaxBytes(t *testing.T) {
	cfg := validConfig()
	cfg.BucketMaxBytes = -1

	assert.ErrorIs(t, cfg.Validate(), errBucketMaxBytesNegative)
}

func TestConfigValidateNormalizesCertPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Security.CertDir = "/etc/devregistryd/certs"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/etc/devregistryd/certs/client.crt", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/etc/devregistryd/certs/client.key", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/etc/devregistryd/certs/ca.crt", cfg.Security.TLS.CAFile)
}

func TestConfigValidateDefaultsBucketHistory(t *testing.T) {
	cfg := validConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint8(1), cfg.BucketHistory)
}
