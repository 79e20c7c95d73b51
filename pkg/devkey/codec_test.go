package devkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecDisjointness(t *testing.T) {
	gk, err := GatewayKey("T1", "dev-1")
	require.NoError(t, err)

	ak, err := AdapterKey("T1", "dev-1")
	require.NoError(t, err)

	assert.NotEqual(t, gk, ak)
	assert.Equal(t, "dev-1", DeviceIDFromAdapterKey(ak))
}

func TestKeyFormsAreBitExact(t *testing.T) {
	gk, err := GatewayKey("acme", "thermostat-7")
	require.NoError(t, err)
	assert.Equal(t, "gw@@acme@@thermostat-7", gk)

	ak, err := AdapterKey("acme", "thermostat-7")
	require.NoError(t, err)
	assert.Equal(t, "ai@@acme@@thermostat-7", ak)
}

func TestAdapterKeyPair(t *testing.T) {
	pair, err := AdapterKeyPair("T1", "dev-1", "gw-1")
	require.NoError(t, err)
	assert.Len(t, pair, 2)
	assert.Equal(t, "ai@@T1@@dev-1", pair[0])
	assert.Equal(t, "ai@@T1@@gw-1", pair[1])
}

func TestAdapterKeysForGateways(t *testing.T) {
	keys, err := AdapterKeysForGateways("T1", "dev-1", []string{"gw-1", "gw-2"})
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "ai@@T1@@dev-1", keys[0])
	assert.Equal(t, "ai@@T1@@gw-1", keys[1])
	assert.Equal(t, "ai@@T1@@gw-2", keys[2])
}

func TestAdapterKeysForGatewaysEmpty(t *testing.T) {
	keys, err := AdapterKeysForGateways("T1", "dev-1", nil)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ai@@T1@@dev-1", keys[0])
}

func TestDeviceIDFromAdapterKeyUsesLastSeparator(t *testing.T) {
	assert.Equal(t, "dev-1", DeviceIDFromAdapterKey("ai@@T1@@dev-1"))
	assert.Equal(t, "", DeviceIDFromAdapterKey("ai@@T1@@"))
	assert.Equal(t, "no-separator", DeviceIDFromAdapterKey("no-separator"))
}

func TestValidateRejectsEmptyAndSeparator(t *testing.T) {
	_, err := GatewayKey("", "dev-1")
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = GatewayKey("T1", "")
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = AdapterKey("T1@@evil", "dev-1")
	assert.ErrorIs(t, err, ErrSeparatorInID)

	_, err = AdapterKey("T1", "dev@@1")
	assert.ErrorIs(t, err, ErrSeparatorInID)
}
