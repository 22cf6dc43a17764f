package config

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("Should expose the loaded configuration", func(t *testing.T) {
		m := NewManager(nil)
		cfg, err := m.Load(t.Context())
		require.NoError(t, err)
		assert.Same(t, cfg, m.Get())
		require.NoError(t, m.Close(t.Context()))
	})

	t.Run("Should notify callbacks on reload when values change", func(t *testing.T) {
		path := writeYAML(t, "batch:\n  max_items: 5\n")
		m := NewManager(nil)
		m.SetDebounce(0)
		var calls atomic.Int32
		m.OnChange(func(*Config) { calls.Add(1) })
		_, err := m.Load(t.Context(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())

		require.NoError(t, m.Reload(t.Context()))
		assert.Equal(t, int32(1), calls.Load(), "unchanged config must not notify")

		require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_items: 6\n"), 0o600))
		require.NoError(t, m.Reload(t.Context()))
		assert.Equal(t, 6, m.Get().Batch.MaxItems)
		require.NoError(t, m.Close(t.Context()))
	})

	t.Run("Should keep the previous configuration when reload fails", func(t *testing.T) {
		path := writeYAML(t, "batch:\n  max_items: 5\n")
		m := NewManager(nil)
		_, err := m.Load(t.Context(), NewYAMLProvider(path))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_items: 0\n"), 0o600))
		require.Error(t, m.Reload(t.Context()))
		assert.Equal(t, 5, m.Get().Batch.MaxItems)
		require.NoError(t, m.Close(t.Context()))
	})

	t.Run("Should reload when the watched file changes", func(t *testing.T) {
		path := writeYAML(t, "batch:\n  max_items: 5\n")
		m := NewManager(nil)
		m.SetDebounce(10 * time.Millisecond)
		_, err := m.Load(t.Context(), NewYAMLProvider(path))
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close(t.Context()) })

		require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_items: 42\n"), 0o600))
		assert.Eventually(t, func() bool {
			return m.Get().Batch.MaxItems == 42
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("Should have the file watch registered when Load returns", func(t *testing.T) {
		path := writeYAML(t, "batch:\n  max_items: 5\n")
		src := NewYAMLProvider(path).(*yamlProvider)
		m := NewManager(nil)
		_, err := m.Load(t.Context(), src)
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close(t.Context()) })

		src.watcherMu.Lock()
		w := src.watcher
		src.watcherMu.Unlock()
		require.NotNil(t, w)
		w.mu.RLock()
		defer w.mu.RUnlock()
		assert.Len(t, w.callbacks, 1)
		assert.Len(t, w.watched, 1)
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the manager stored in context", func(t *testing.T) {
		m := NewManager(nil)
		_, err := m.Load(t.Context())
		require.NoError(t, err)
		ctx := ContextWithManager(t.Context(), m)
		assert.Same(t, m, ManagerFromContext(ctx))
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("Should fall back to a default manager", func(t *testing.T) {
		cfg := FromContext(t.Context())
		require.NotNil(t, cfg)
		assert.NotEmpty(t, cfg.Server.Name)
	})
}
