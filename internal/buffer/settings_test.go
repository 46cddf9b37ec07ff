package buffer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	values map[string]bool
	err    error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]bool)}
}

func (m *mapStore) SetValue(_ context.Context, key string, value bool) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mapStore) GetValue(_ context.Context, key string, def bool) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.Enabled())
	assert.False(t, s.FilterSubscription())
	assert.False(t, s.EnabledPositions())
	assert.True(t, s.EnabledTransactions())
	assert.True(t, s.TicksAsLevel1())
	assert.False(t, s.DisableStorageTimer())
}

func TestSettings_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	src := DefaultSettings()
	src.SetEnabled(false)
	src.SetFilterSubscription(true)
	src.SetEnabledPositions(true)
	src.SetEnabledTransactions(false)
	src.SetTicksAsLevel1(false)
	src.SetDisableStorageTimer(true)
	require.NoError(t, src.Save(ctx, store))

	// Exactly the six switches are written, keyed by name
	assert.Equal(t, map[string]bool{
		KeyEnabled:             false,
		KeyEnabledPositions:    true,
		KeyEnabledTransactions: false,
		KeyFilterSubscription:  true,
		KeyTicksAsLevel1:       false,
		KeyDisableStorageTimer: true,
	}, store.values)

	dst := DefaultSettings()
	require.NoError(t, dst.Load(ctx, store))
	assert.Equal(t, src.Map(), dst.Map())
}

func TestSettings_LoadKeepsCurrentForMissingKeys(t *testing.T) {
	store := newMapStore()
	store.values[KeyFilterSubscription] = true

	s := DefaultSettings()
	s.SetEnabledPositions(true)
	require.NoError(t, s.Load(context.Background(), store))

	assert.True(t, s.FilterSubscription())
	assert.True(t, s.EnabledPositions(), "missing key should keep current value")
	assert.True(t, s.Enabled())
}

func TestSettings_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk full")
	store := &mapStore{values: map[string]bool{}, err: boom}

	err := DefaultSettings().Save(context.Background(), store)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), KeyEnabled)

	err = DefaultSettings().Load(context.Background(), store)
	assert.ErrorIs(t, err, boom)
}

func TestSettings_Reset(t *testing.T) {
	s := DefaultSettings()
	s.SetEnabled(false)
	s.SetEnabledPositions(true)
	s.Reset()

	assert.Equal(t, DefaultSettings().Map(), s.Map())
}
