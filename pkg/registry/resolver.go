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

// Package registry implements the device connection registry's public
// contract: recording the last-known gateway for a device, and
// resolving which adapter-instance process currently handles commands
// for a device or one of the gateways acting on its behalf.
package registry

import (
	"context"
	"errors"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/carverauto/devregistry/pkg/devkey"
	"github.com/carverauto/devregistry/pkg/logger"
	"github.com/carverauto/devregistry/pkg/store"
)

// DefaultGatewayFanoutThreshold is the tuning constant separating the
// query-all-first strategy (Case B) from the last-known-first strategy
// (Case C). Fixed at 3 to preserve behavioral equivalence with the
// reference implementation; exposed on Registry for override.
const DefaultGatewayFanoutThreshold = 3

// Registry borrows a Store for its lifetime; the store is a shared
// resource that outlives any single Registry and may be used by other
// subsystems of the hosting process. Registry holds no other mutable
// in-process state.
type Registry struct {
	store  store.Store
	tracer otelTrace.Tracer

	// GatewayFanoutThreshold overrides DefaultGatewayFanoutThreshold
	// when positive.
	GatewayFanoutThreshold int
}

// New builds a Registry over the given Store.
func New(s store.Store) *Registry {
	return &Registry{
		store:  s,
		tracer: logger.GetTracer("device-connection-registry"),
	}
}

func (r *Registry) threshold() int {
	if r.GatewayFanoutThreshold > 0 {
		return r.GatewayFanoutThreshold
	}

	return DefaultGatewayFanoutThreshold
}

func (r *Registry) startSpan(ctx context.Context, name string) (context.Context, otelTrace.Span) {
	if r.tracer == nil {
		return ctx, noopSpan{}
	}

	return r.tracer.Start(ctx, name)
}

// SetLastKnownGatewayForDevice records gatewayId as the last gateway (or
// the device itself) to act on behalf of device. Null tenant, device, or
// gatewayId is a programmer error rejected before any store call.
func (r *Registry) SetLastKnownGatewayForDevice(ctx context.Context, tenant, device, gatewayID string) error {
	ctx, span := r.startSpan(ctx, "registry.SetLastKnownGatewayForDevice")
	defer span.End()

	if gatewayID == "" {
		return invalidArgument(errEmptyGatewayID)
	}

	key, err := devkey.GatewayKey(tenant, device)
	if err != nil {
		return invalidArgument(err)
	}

	if err := r.store.Put(ctx, key, []byte(gatewayID)); err != nil {
		r.logDebug("set-last-known-gateway", err)
		return internal(err)
	}

	return nil
}

// GetLastKnownGatewayForDevice reads the last gateway recorded for
// device, failing with KindNotFound when no such record exists.
func (r *Registry) GetLastKnownGatewayForDevice(ctx context.Context, tenant, device string) (GatewayResult, error) {
	ctx, span := r.startSpan(ctx, "registry.GetLastKnownGatewayForDevice")
	defer span.End()

	key, err := devkey.GatewayKey(tenant, device)
	if err != nil {
		return GatewayResult{}, invalidArgument(err)
	}

	value, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logDebug("get-last-known-gateway", err)
		return GatewayResult{}, internal(err)
	}

	if !found {
		return GatewayResult{}, notFound()
	}

	return GatewayResult{GatewayID: string(value)}, nil
}

// SetCommandHandlingAdapterInstance unconditionally records
// adapterInstanceID as the owner of device's (or gateway's) command
// handling.
func (r *Registry) SetCommandHandlingAdapterInstance(ctx context.Context, tenant, device, adapterInstanceID string) error {
	ctx, span := r.startSpan(ctx, "registry.SetCommandHandlingAdapterInstance")
	defer span.End()

	if adapterInstanceID == "" {
		return invalidArgument(errEmptyAdapterInstanceID)
	}

	key, err := devkey.AdapterKey(tenant, device)
	if err != nil {
		return invalidArgument(err)
	}

	if err := r.store.Put(ctx, key, []byte(adapterInstanceID)); err != nil {
		r.logDebug("set-command-handling-adapter-instance", err)
		return internal(err)
	}

	return nil
}

// RemoveCommandHandlingAdapterInstance is the core's only
// optimistic-concurrency operation: it removes the adapter-instance
// entry for device iff the stored value still equals
// adapterInstanceID, using the store's version token to detect a
// concurrent takeover.
func (r *Registry) RemoveCommandHandlingAdapterInstance(ctx context.Context, tenant, device, adapterInstanceID string) error {
	ctx, span := r.startSpan(ctx, "registry.RemoveCommandHandlingAdapterInstance")
	defer span.End()

	key, err := devkey.AdapterKey(tenant, device)
	if err != nil {
		return invalidArgument(err)
	}

	entry, err := r.store.GetWithVersion(ctx, key)
	if err != nil {
		r.logDebug("remove-command-handling-adapter-instance.get", err)
		return internal(err)
	}

	if !entry.Found {
		return notFound()
	}

	if string(entry.Value) != adapterInstanceID {
		return preconditionFailed(nil)
	}

	ok, err := r.store.RemoveWithVersion(ctx, key, entry.Version)
	if err != nil {
		r.logDebug("remove-command-handling-adapter-instance.remove", err)
		return internal(err)
	}

	if !ok {
		return preconditionFailed(nil)
	}

	return nil
}

// GetCommandHandlingAdapterInstances is the central algorithm: given the
// gateways declared as permitted to act on device's behalf, it resolves
// which adapter instance(s) currently handle its commands.
func (r *Registry) GetCommandHandlingAdapterInstances(
	ctx context.Context, tenant, device string, viaGateways []string,
) (AdapterInstancesResult, error) {
	ctx, span := r.startSpan(ctx, "registry.GetCommandHandlingAdapterInstances")
	defer span.End()

	switch {
	case len(viaGateways) == 0:
		return r.resolveDeviceOnly(ctx, tenant, device)
	case len(viaGateways) <= r.threshold():
		return r.resolveSmallGatewaySet(ctx, tenant, device, viaGateways)
	default:
		return r.resolveLargeGatewaySet(ctx, tenant, device, viaGateways)
	}
}

// resolveDeviceOnly is Case A: no candidate gateways, so the only
// possible mapping is the device's own adapter entry.
func (r *Registry) resolveDeviceOnly(ctx context.Context, tenant, device string) (AdapterInstancesResult, error) {
	key, err := devkey.AdapterKey(tenant, device)
	if err != nil {
		return AdapterInstancesResult{}, invalidArgument(err)
	}

	value, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logDebug("get-command-handling-adapter-instances.case-a", err)
		return AdapterInstancesResult{}, internal(err)
	}

	if !found {
		return AdapterInstancesResult{}, notFound()
	}

	return singleResult(device, string(value)), nil
}

// resolveSmallGatewaySet is Case B: query-all-first over the device's
// own key plus every candidate gateway's key in a single getAll, then
// apply the precedence rules in §4.3.
func (r *Registry) resolveSmallGatewaySet(
	ctx context.Context, tenant, device string, viaGateways []string,
) (AdapterInstancesResult, error) {
	found, err := r.queryAllCandidates(ctx, tenant, device, viaGateways)
	if err != nil {
		return AdapterInstancesResult{}, err
	}

	return r.applyPrecedence(ctx, tenant, device, viaGateways, found)
}

// resolveLargeGatewaySet is Case C: last-known-first. Consult the
// last-known gateway before paying for an (N+1)-key getAll; only fall
// back to the full query when the last-known gateway turns out unusable.
func (r *Registry) resolveLargeGatewaySet(
	ctx context.Context, tenant, device string, viaGateways []string,
) (AdapterInstancesResult, error) {
	lastKnown, hasLastKnown, err := r.lastKnownGatewayIn(ctx, tenant, device, viaGateways)
	if err != nil {
		return AdapterInstancesResult{}, err
	}

	if !hasLastKnown {
		found, err := r.queryAllCandidates(ctx, tenant, device, viaGateways)
		if err != nil {
			return AdapterInstancesResult{}, err
		}

		return r.applyPrecedenceNoRecheck(tenant, device, found)
	}

	pair, err := devkey.AdapterKeyPair(tenant, device, lastKnown)
	if err != nil {
		return AdapterInstancesResult{}, invalidArgument(err)
	}

	narrow, err := r.store.GetAll(ctx, pair[:])
	if err != nil {
		r.logDebug("get-command-handling-adapter-instances.case-c.narrow", err)
		return AdapterInstancesResult{}, internal(err)
	}

	deviceKey := pair[0]
	if value, ok := narrow[deviceKey]; ok {
		return singleResult(device, string(value)), nil
	}

	if len(narrow) > 0 {
		return mappingsFrom(narrow), nil
	}

	// Last-known gateway had no active mapping; fall back to the full query.
	found, err := r.queryAllCandidates(ctx, tenant, device, viaGateways)
	if err != nil {
		return AdapterInstancesResult{}, err
	}

	return r.applyPrecedenceNoRecheck(tenant, device, found)
}

// lastKnownGatewayIn reads the last-known gateway for device and
// reports whether it is both present and a member of viaGateways.
func (r *Registry) lastKnownGatewayIn(
	ctx context.Context, tenant, device string, viaGateways []string,
) (gateway string, usable bool, err error) {
	key, kerr := devkey.GatewayKey(tenant, device)
	if kerr != nil {
		return "", false, invalidArgument(kerr)
	}

	value, found, gerr := r.store.Get(ctx, key)
	if gerr != nil {
		r.logDebug("get-command-handling-adapter-instances.last-known", gerr)
		return "", false, internal(gerr)
	}

	if !found {
		return "", false, nil
	}

	gw := string(value)
	if !contains(viaGateways, gw) {
		return "", false, nil
	}

	return gw, true, nil
}

// queryAllCandidates issues the single getAll over the device's own
// adapter key plus one per candidate gateway.
func (r *Registry) queryAllCandidates(
	ctx context.Context, tenant, device string, viaGateways []string,
) (map[string][]byte, error) {
	keys, err := devkey.AdapterKeysForGateways(tenant, device, viaGateways)
	if err != nil {
		return nil, invalidArgument(err)
	}

	found, err := r.store.GetAll(ctx, keys)
	if err != nil {
		r.logDebug("get-command-handling-adapter-instances.query-all", err)
		return nil, internal(err)
	}

	return found, nil
}

// applyPrecedence implements Case B's four-step precedence, including
// the gateway re-check against the last-known gateway in step 4.
func (r *Registry) applyPrecedence(
	ctx context.Context, tenant, device string, viaGateways []string, found map[string][]byte,
) (AdapterInstancesResult, error) {
	if len(found) == 0 {
		return AdapterInstancesResult{}, notFound()
	}

	deviceKey, err := devkey.AdapterKey(tenant, device)
	if err != nil {
		return AdapterInstancesResult{}, invalidArgument(err)
	}

	if value, ok := found[deviceKey]; ok {
		return singleResult(device, string(value)), nil
	}

	if len(found) == 1 {
		return mappingsFrom(found), nil
	}

	lastKnown, hasLastKnown, err := r.lastKnownGatewayIn(ctx, tenant, device, viaGateways)
	if err != nil {
		return AdapterInstancesResult{}, err
	}

	if !hasLastKnown {
		return mappingsFrom(found), nil
	}

	lastKnownKey, err := devkey.AdapterKey(tenant, lastKnown)
	if err != nil {
		return AdapterInstancesResult{}, invalidArgument(err)
	}

	value, ok := found[lastKnownKey]
	if !ok {
		return mappingsFrom(found), nil
	}

	return singleResult(lastKnown, string(value)), nil
}

// applyPrecedenceNoRecheck is Case B's precedence applied from Case C,
// skipping the step-4 gateway re-check because last-known is already
// known to be unusable (absent, not a candidate, or already re-queried).
func (r *Registry) applyPrecedenceNoRecheck(tenant, device string, found map[string][]byte) (AdapterInstancesResult, error) {
	if len(found) == 0 {
		return AdapterInstancesResult{}, notFound()
	}

	deviceKey, err := devkey.AdapterKey(tenant, device)
	if err != nil {
		return AdapterInstancesResult{}, invalidArgument(err)
	}

	if value, ok := found[deviceKey]; ok {
		return singleResult(device, string(value)), nil
	}

	return mappingsFrom(found), nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}

	return false
}

func singleResult(deviceID, adapterInstanceID string) AdapterInstancesResult {
	return AdapterInstancesResult{
		AdapterInstances: []AdapterInstanceMapping{
			{DeviceID: deviceID, AdapterInstanceID: adapterInstanceID},
		},
	}
}

func mappingsFrom(found map[string][]byte) AdapterInstancesResult {
	mappings := make([]AdapterInstanceMapping, 0, len(found))

	for key, value := range found {
		mappings = append(mappings, AdapterInstanceMapping{
			DeviceID:          devkey.DeviceIDFromAdapterKey(key),
			AdapterInstanceID: string(value),
		})
	}

	return AdapterInstancesResult{AdapterInstances: mappings}
}

func (r *Registry) logDebug(op string, err error) {
	logger.Debug().Str("op", op).Err(err).Msg("store call failed")
}

var (
	errEmptyGatewayID         = errors.New("registry: gatewayId must not be empty")
	errEmptyAdapterInstanceID = errors.New("registry: adapterInstanceId must not be empty")
)

// noopSpan is used when no tracer has been wired (e.g. in tests that
// construct a Registry without tracing). It satisfies otelTrace.Span
// with a do-nothing End.
type noopSpan struct{ otelTrace.Span }

func (noopSpan) End(...otelTrace.SpanEndOption) {}
