package buffer

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Settings keys as written by Save.
const (
	KeyEnabled             = "Enabled"
	KeyEnabledPositions    = "EnabledPositions"
	KeyEnabledTransactions = "EnabledTransactions"
	KeyFilterSubscription  = "FilterSubscription"
	KeyTicksAsLevel1       = "TicksAsLevel1"
	KeyDisableStorageTimer = "DisableStorageTimer"
)

// SettingsStore persists flat boolean settings.
type SettingsStore interface {
	SetValue(ctx context.Context, key string, value bool) error
	GetValue(ctx context.Context, key string, def bool) (bool, error)
}

// Settings holds the switches read by the retention policy. Each switch is
// updated independently; readers may observe a mix of old and new values
// while a reconfiguration is in progress.
type Settings struct {
	enabled             atomic.Bool
	filterSubscription  atomic.Bool
	enabledPositions    atomic.Bool
	enabledTransactions atomic.Bool
	ticksAsLevel1       atomic.Bool
	disableStorageTimer atomic.Bool
}

// DefaultSettings returns storage enabled for everything except positions,
// without subscription filtering.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.Reset()
	return s
}

// Reset restores the default values.
func (s *Settings) Reset() {
	s.enabled.Store(true)
	s.filterSubscription.Store(false)
	s.enabledPositions.Store(false)
	s.enabledTransactions.Store(true)
	s.ticksAsLevel1.Store(true)
	s.disableStorageTimer.Store(false)
}

// Enabled turns storage on or off as a whole.
func (s *Settings) Enabled() bool     { return s.enabled.Load() }
func (s *Settings) SetEnabled(v bool) { s.enabled.Store(v) }

// FilterSubscription keeps only data produced for known subscriptions.
func (s *Settings) FilterSubscription() bool     { return s.filterSubscription.Load() }
func (s *Settings) SetFilterSubscription(v bool) { s.filterSubscription.Store(v) }

func (s *Settings) EnabledPositions() bool     { return s.enabledPositions.Load() }
func (s *Settings) SetEnabledPositions(v bool) { s.enabledPositions.Store(v) }

func (s *Settings) EnabledTransactions() bool     { return s.enabledTransactions.Load() }
func (s *Settings) SetEnabledTransactions(v bool) { s.enabledTransactions.Store(v) }

// TicksAsLevel1 makes the flusher derive level1 changes from ticks.
func (s *Settings) TicksAsLevel1() bool     { return s.ticksAsLevel1.Load() }
func (s *Settings) SetTicksAsLevel1(v bool) { s.ticksAsLevel1.Store(v) }

// DisableStorageTimer suspends periodic flushing.
func (s *Settings) DisableStorageTimer() bool     { return s.disableStorageTimer.Load() }
func (s *Settings) SetDisableStorageTimer(v bool) { s.disableStorageTimer.Store(v) }

type settingField struct {
	key string
	val *atomic.Bool
}

func (s *Settings) fields() []settingField {
	return []settingField{
		{KeyEnabled, &s.enabled},
		{KeyEnabledPositions, &s.enabledPositions},
		{KeyEnabledTransactions, &s.enabledTransactions},
		{KeyFilterSubscription, &s.filterSubscription},
		{KeyTicksAsLevel1, &s.ticksAsLevel1},
		{KeyDisableStorageTimer, &s.disableStorageTimer},
	}
}

// Save writes every switch to store.
func (s *Settings) Save(ctx context.Context, store SettingsStore) error {
	for _, f := range s.fields() {
		if err := store.SetValue(ctx, f.key, f.val.Load()); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", f.key, err)
		}
	}
	return nil
}

// Load reads every switch from store, keeping the current value for keys the
// store does not have.
func (s *Settings) Load(ctx context.Context, store SettingsStore) error {
	for _, f := range s.fields() {
		v, err := store.GetValue(ctx, f.key, f.val.Load())
		if err != nil {
			return fmt.Errorf("failed to load setting %s: %w", f.key, err)
		}
		f.val.Store(v)
	}
	return nil
}

// Map returns the current switch values keyed by setting name.
func (s *Settings) Map() map[string]bool {
	out := make(map[string]bool, 6)
	for _, f := range s.fields() {
		out[f.key] = f.val.Load()
	}
	return out
}
