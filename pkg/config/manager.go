package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/focusmcp/focusmcp/pkg/logger"
)

// Manager holds the active configuration with atomic swaps and hot reload.
type Manager struct {
	Service     Service
	current     atomic.Pointer[Config]
	sources     []Source
	callbacks   []func(*Config)
	callbackMu  sync.RWMutex
	reloadMu    sync.Mutex
	watchCtx    context.Context
	watchCancel context.CancelFunc
	closeOnce   sync.Once
	debounce    time.Duration
}

func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:  service,
		debounce: 100 * time.Millisecond,
	}
}

// Load loads configuration from sources and starts watching the ones that support it.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.applyConfig(cfg)
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchCtx, m.watchCancel = context.WithCancel(context.WithoutCancel(ctx))
	m.startWatching(sources)
	return cfg, nil
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Reload re-reads every source; the previous configuration stays active on error.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	cfg, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.applyConfig(cfg)
	return nil
}

// SetDebounce must be called before Load.
func (m *Manager) SetDebounce(d time.Duration) {
	m.debounce = d
}

func (m *Manager) OnChange(callback func(*Config)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.reloadMu.Lock()
		sources := append([]Source(nil), m.sources...)
		m.reloadMu.Unlock()
		for _, src := range sources {
			if src == nil {
				continue
			}
			if err := src.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

// startWatching registers file watches before Load returns, so edits made
// right after Load are seen.
func (m *Manager) startWatching(sources []Source) {
	ctx := m.watchCtx
	for _, src := range sources {
		if src == nil || src.Type() != SourceYAML {
			continue
		}
		if err := src.Watch(ctx, m.debounced(ctx)); err != nil {
			logger.FromContext(ctx).Debug("source does not support watching", "source", src.Type(), "error", err)
		}
	}
}

// debounced coalesces bursts of file events into one Reload.
func (m *Manager) debounced(ctx context.Context) func() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			if err := m.Reload(ctx); err != nil {
				logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
				return
			}
			logger.FromContext(ctx).Info("configuration reloaded")
		})
	}
}

func (m *Manager) applyConfig(cfg *Config) {
	prev := m.current.Swap(cfg)
	if prev != nil && reflect.DeepEqual(prev, cfg) {
		return
	}
	m.callbackMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbackMu.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(cfg)
		}
	}
}
