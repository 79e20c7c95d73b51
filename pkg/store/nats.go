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
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/devregistry/pkg/logger"
)

// NATSStore is the production Store backend: a NATS JetStream key/value
// bucket reached over an mTLS-secured connection, with automatic
// reconnect and domain-scoped bucket provisioning.
type NATSStore struct {
	nc        *nats.Conn
	ctx       context.Context
	natsURL   string
	security  *SecurityConfig
	bucket    string
	domain    string
	history   uint8
	ttl       time.Duration
	maxBytes  int64
	js        jetstream.JetStream
	kv        jetstream.KeyValue
	mu        sync.Mutex
	connectFn func() (*nats.Conn, error)
}

// NewNATSStore connects to NATS and provisions (or attaches to) the
// configured JetStream KV bucket, failing fast on misconfiguration.
func NewNATSStore(ctx context.Context, cfg *Config) (*NATSStore, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	s := &NATSStore{
		ctx:      ctx,
		natsURL:  cfg.NATSURL,
		security: cfg.Security,
		bucket:   cfg.Bucket,
		domain:   cfg.Domain,
		history:  cfg.BucketHistory,
		ttl:      cfg.BucketTTL,
		maxBytes: cfg.BucketMaxBytes,
	}

	if s.history == 0 {
		s.history = 1
	}

	s.connectFn = s.connect

	if err := s.ensureBucket(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *NATSStore) connect() (*nats.Conn, error) {
	if s.security == nil {
		return nil, errMTLSRequired
	}

	tlsConfig, err := tlsConfigFor(s.security)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}

	opts := []nats.Option{
		nats.Secure(tlsConfig),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Debug().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Debug().Str("url", nc.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	}

	conn, err := nats.Connect(s.natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return conn, nil
}

func tlsConfigFor(sec *SecurityConfig) (*tls.Config, error) {
	if sec == nil || sec.Mode != SecurityModeMTLS {
		return nil, errMTLSRequired
	}

	cert, err := tls.LoadX509KeyPair(sec.TLS.CertFile, sec.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadClientCert, err)
	}

	caCert, err := os.ReadFile(sec.TLS.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToReadCACert, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errFailedToParseCACert
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   sec.TLS.ServerName,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func (s *NATSStore) Put(ctx context.Context, key string, value []byte) error {
	kv, err := s.kvHandle(ctx)
	if err != nil {
		return err
	}

	if _, err := kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.GetWithVersion(ctx, key)
	if err != nil {
		return nil, false, err
	}

	return entry.Value, entry.Found, nil
}

func (s *NATSStore) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	kv, err := s.kvHandle(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))

	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to get key %s: %w", key, err)
		}

		result[key] = entry.Value()
	}

	return result, nil
}

func (s *NATSStore) GetWithVersion(ctx context.Context, key string) (Entry, error) {
	kv, err := s.kvHandle(ctx)
	if err != nil {
		return Entry{}, err
	}

	entry, err := kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return Entry{Found: false}, nil
	}

	if err != nil {
		return Entry{}, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return Entry{
		Value:   entry.Value(),
		Version: entry.Revision(),
		Found:   true,
	}, nil
}

func (s *NATSStore) RemoveWithVersion(ctx context.Context, key string, version Version) (bool, error) {
	kv, err := s.kvHandle(ctx)
	if err != nil {
		return false, err
	}

	if err := kv.Delete(ctx, key, jetstream.LastRevision(version)); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) || errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return true, nil
}

func (s *NATSStore) CheckAvailability(ctx context.Context) (Stats, error) {
	kv, err := s.kvHandle(ctx)
	if err != nil {
		return Stats{}, err
	}

	status, err := kv.Status(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read bucket status: %w", err)
	}

	return Stats{
		Backend: "nats-jetstream",
		Detail: map[string]string{
			"bucket": status.Bucket(),
			"values": fmt.Sprintf("%d", status.Values()),
		},
	}, nil
}

func (s *NATSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}

	s.js = nil
	s.kv = nil

	return nil
}

var _ Store = (*NATSStore)(nil)

func (s *NATSStore) kvHandle(ctx context.Context) (jetstream.KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv != nil && !s.connectionNeedsRefreshLocked() {
		return s.kv, nil
	}

	if err := s.ensureBucketLocked(ctx); err != nil {
		return nil, err
	}

	return s.kv, nil
}

func (s *NATSStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensureBucketLocked(ctx)
}

func (s *NATSStore) ensureBucketLocked(ctx context.Context) error {
	if s.connectFn == nil {
		return errNATSNotConfigured
	}

	if s.connectionNeedsRefreshLocked() {
		conn, err := s.connectFn()
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		if s.nc != nil {
			s.nc.Close()
		}

		s.nc = conn
		s.js = nil
		s.kv = nil
	}

	if s.js == nil {
		var err error

		if s.domain == "" {
			s.js, err = jetstream.New(s.nc)
		} else {
			s.js, err = jetstream.NewWithDomain(s.nc, s.domain)
		}

		if err != nil {
			return fmt.Errorf("jetstream init failed: %w", err)
		}
	}

	kv, err := s.js.KeyValue(ctx, s.bucket)
	if err != nil {
		cfg := jetstream.KeyValueConfig{
			Bucket:  s.bucket,
			History: s.history,
		}

		if s.ttl > 0 {
			cfg.TTL = s.ttl
		}

		if s.maxBytes > 0 {
			cfg.MaxBytes = s.maxBytes
		}

		kv, err = s.js.CreateKeyValue(ctx, cfg)
		if err != nil {
			return fmt.Errorf("kv bucket init failed: %w", err)
		}
	}

	s.kv = kv

	return nil
}

func (s *NATSStore) connectionNeedsRefreshLocked() bool {
	if s.nc == nil {
		return true
	}

	return s.nc.Status() != nats.CONNECTED
}
