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

// Package devkey encodes and decodes the two disjoint key-spaces the
// device connection registry stores its mappings under: the
// gateway-of-device space and the adapter-instance-of-device space.
package devkey

import (
	"errors"
	"strings"
)

// SEP separates the prefix, tenant, and device segments of an encoded key.
// Chosen to match an existing deployment's key schema bit-for-bit.
const SEP = "@@"

const (
	gatewayPrefix = "gw"
	adapterPrefix = "ai"
)

// ErrSeparatorInID is returned when a tenant or device id contains SEP,
// which would make key decoding ambiguous.
var ErrSeparatorInID = errors.New("devkey: id must not contain the key separator")

// ErrEmptyID is returned when a tenant or device id is empty.
var ErrEmptyID = errors.New("devkey: id must not be empty")

// GatewayKey returns the key under which the last-known gateway for
// (tenant, device) is stored.
func GatewayKey(tenant, device string) (string, error) {
	if err := validateID(tenant); err != nil {
		return "", err
	}

	if err := validateID(device); err != nil {
		return "", err
	}

	return join(gatewayPrefix, tenant, device), nil
}

// AdapterKey returns the key under which the command-handling adapter
// instance for (tenant, device) is stored. The same form is used whether
// device names an end-device or a gateway acting on its own behalf.
func AdapterKey(tenant, device string) (string, error) {
	if err := validateID(tenant); err != nil {
		return "", err
	}

	if err := validateID(device); err != nil {
		return "", err
	}

	return join(adapterPrefix, tenant, device), nil
}

// AdapterKeyPair returns the two adapter-instance keys for deviceA and
// deviceB under the same tenant, as used when disambiguating a single
// gateway against the device itself.
func AdapterKeyPair(tenant, deviceA, deviceB string) ([2]string, error) {
	var pair [2]string

	ka, err := AdapterKey(tenant, deviceA)
	if err != nil {
		return pair, err
	}

	kb, err := AdapterKey(tenant, deviceB)
	if err != nil {
		return pair, err
	}

	pair[0], pair[1] = ka, kb

	return pair, nil
}

// AdapterKeysForGateways returns the device's own adapter key plus one
// adapter key per candidate gateway, as the set queried by
// getCommandHandlingAdapterInstances's multi-key strategies.
func AdapterKeysForGateways(tenant, device string, gateways []string) ([]string, error) {
	keys := make([]string, 0, len(gateways)+1)

	deviceKey, err := AdapterKey(tenant, device)
	if err != nil {
		return nil, err
	}

	keys = append(keys, deviceKey)

	for _, gw := range gateways {
		gwKey, gerr := AdapterKey(tenant, gw)
		if gerr != nil {
			return nil, gerr
		}

		keys = append(keys, gwKey)
	}

	return keys, nil
}

// DeviceIDFromAdapterKey decodes the device id out of an adapter key by
// taking the substring after the last occurrence of SEP. This is only
// meant to be applied to keys this package itself produced within a
// single request; tenant ids containing SEP are not recoverable by this
// scheme, which is acceptable for that reason alone.
func DeviceIDFromAdapterKey(key string) string {
	idx := strings.LastIndex(key, SEP)
	if idx < 0 {
		return key
	}

	return key[idx+len(SEP):]
}

func validateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}

	if strings.Contains(id, SEP) {
		return ErrSeparatorInID
	}

	return nil
}

func join(prefix, tenant, device string) string {
	var b strings.Builder

	b.Grow(len(prefix) + len(tenant) + len(device) + 2*len(SEP))
	b.WriteString(prefix)
	b.WriteString(SEP)
	b.WriteString(tenant)
	b.WriteString(SEP)
	b.WriteString(device)

	return b.String()
}
