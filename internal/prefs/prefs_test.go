package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutBundleUsesDefaults(t *testing.T) {
	p, err := Load(NewMemoryStorage())
	require.NoError(t, err)

	assert.True(t, p.AutoScroll)
	assert.False(t, p.SoundEnabled)
	assert.Empty(t, p.Temperature)
}

func TestLoadPartialBundle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Preferences
	}{
		{"autoscroll off", `{"autoScroll":false}`, Preferences{AutoScroll: false, SoundEnabled: false}},
		{"sound only", `{"soundEnabled":true}`, Preferences{AutoScroll: true, SoundEnabled: true}},
		{"string temperature", `{"temperature":"1.2"}`, Preferences{AutoScroll: true, Temperature: "1.2"}},
		{"numeric temperature", `{"temperature":0.4}`, Preferences{AutoScroll: true, Temperature: "0.4"}},
		{"empty object", `{}`, Defaults()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStorage()
			require.NoError(t, s.Set(StorageKey, tt.raw))

			p, err := Load(s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestLoadCorruptBundleFallsBack(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Set(StorageKey, `{not json`))

	p, err := Load(s)
	assert.Error(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestSaveOverwritesWholesale(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Set(StorageKey, `{"autoScroll":false,"soundEnabled":true,"temperature":"1.5","legacy":1}`))

	require.NoError(t, Save(s, Preferences{AutoScroll: true, SoundEnabled: false, Temperature: "0.3"}))

	raw, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"autoScroll":true,"soundEnabled":false,"temperature":"0.3"}`, raw)
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s := NewFileStorage(path)

	_, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Preferences{AutoScroll: false, SoundEnabled: true, Temperature: "0.9"}
	require.NoError(t, Save(s, want))
	require.NoError(t, s.Set("other", "value"))

	got, err := Load(NewFileStorage(path))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, _, err := NewFileStorage(path).Get(StorageKey)
	assert.Error(t, err)
}
