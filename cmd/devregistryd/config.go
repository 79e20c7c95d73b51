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

package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/carverauto/devregistry/pkg/logger"
	"github.com/carverauto/devregistry/pkg/store"
)

var errConfigPathRequired = errors.New("devregistryd: -config is required")

// Config is the on-disk configuration for the device connection
// registry host process: where the registry's backing store lives, its
// logging, and its tracing.
type Config struct {
	Logger                 logger.Config      `json:"logger"`
	OTel                   *logger.OTelConfig `json:"otel,omitempty"`
	Store                  store.Config       `json:"store"`
	GatewayFanoutThreshold int                `json:"gateway_fanout_threshold,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errConfigPathRequired
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
