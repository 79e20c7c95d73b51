/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"path/filepath"
	"time"
)

// TLSConfig holds the mTLS material used to secure the NATS connection.
type TLSConfig struct {
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	CAFile     string `json:"ca_file" yaml:"ca_file"`
	ServerName string `json:"server_name,omitempty" yaml:"server_name,omitempty"`
}

// SecurityConfig selects the connection security mode for the NATS store.
type SecurityConfig struct {
	Mode    string    `json:"mode" yaml:"mode"`
	CertDir string    `json:"cert_dir,omitempty" yaml:"cert_dir,omitempty"`
	TLS     TLSConfig `json:"tls" yaml:"tls"`
}

const SecurityModeMTLS = "mtls"

// Config holds the configuration for the NATS JetStream-backed store.
type Config struct {
	NATSURL        string          `json:"nats_url" yaml:"nats_url"`
	Domain         string          `json:"domain,omitempty" yaml:"domain,omitempty"`
	Bucket         string          `json:"bucket" yaml:"bucket"`
	BucketHistory  uint8           `json:"bucket_history,omitempty" yaml:"bucket_history,omitempty"`
	BucketTTL      time.Duration   `json:"bucket_ttl,omitempty" yaml:"bucket_ttl,omitempty"`
	BucketMaxBytes int64           `json:"bucket_max_bytes,omitempty" yaml:"bucket_max_bytes,omitempty"`
	Security       *SecurityConfig `json:"security" yaml:"security"`
}

// Validate checks required fields, normalizes certificate paths relative
// to CertDir, and fills in bucket defaults.
func (c *Config) Validate() error {
	if c.NATSURL == "" {
		return errNATSURLRequired
	}

	if c.Bucket == "" {
		return errBucketRequired
	}

	if c.BucketMaxBytes < 0 {
		return errBucketMaxBytesNegative
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	c.normalizeCertPaths()
	c.setDefaultBucketOptions()

	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security == nil || c.Security.Mode != SecurityModeMTLS {
		return errSecurityRequired
	}

	tls := c.Security.TLS

	if tls.CertFile == "" {
		return errCertFileRequired
	}

	if tls.KeyFile == "" {
		return errKeyFileRequired
	}

	if tls.CAFile == "" {
		return errCAFileRequired
	}

	return nil
}

func (c *Config) normalizeCertPaths() {
	certDir := c.Security.CertDir
	if certDir == "" {
		return
	}

	tls := &c.Security.TLS

	if !filepath.IsAbs(tls.CertFile) {
		tls.CertFile = filepath.Join(certDir, tls.CertFile)
	}

	if !filepath.IsAbs(tls.KeyFile) {
		tls.KeyFile = filepath.Join(certDir, tls.KeyFile)
	}

	if !filepath.IsAbs(tls.CAFile) {
		tls.CAFile = filepath.Join(certDir, tls.CAFile)
	}
}

func (c *Config) setDefaultBucketOptions() {
	if c.BucketHistory == 0 {
		c.BucketHistory = 1
	}

	if c.BucketTTL < 0 {
		c.BucketTTL = 0
	}
}
