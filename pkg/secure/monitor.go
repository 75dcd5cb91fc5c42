package secure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StoreMonitor watches the store files referenced by a parameter set and
// reports certificate expiry. It does not feed anything back into the
// builder, which derives contexts fresh on every build; it lets callers
// learn about rotated or soon-to-expire material and react, for example
// by cycling their listeners.
type StoreMonitor struct {
	params   *TransportParams
	logger   *slog.Logger
	onChange func(path string)

	checkInterval time.Duration
	warningWindow time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewStoreMonitor creates a monitor for the given parameter set. onChange
// is invoked with the path of any store file that is rewritten; it may be
// nil.
func NewStoreMonitor(params *TransportParams, logger *slog.Logger, onChange func(path string)) *StoreMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreMonitor{
		params:        params,
		logger:        logger.With("component", "store_monitor"),
		onChange:      onChange,
		checkInterval: time.Hour,
		warningWindow: 30 * 24 * time.Hour,
	}
}

// SetCheckInterval changes how often certificate expiry is re-evaluated.
func (m *StoreMonitor) SetCheckInterval(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkInterval = interval
}

// Start begins watching store files and checking expiry. Idempotent.
func (m *StoreMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	paths := m.storePaths()
	if len(paths) == 0 {
		return fmt.Errorf("no stores configured to monitor")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create store watcher: %w", err)
	}
	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return fmt.Errorf("watch store %s: %w", path, err)
		}
	}

	m.running = true
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run(ctx, watcher)

	m.logger.Info("store monitoring started", "stores", paths, "check_interval", m.checkInterval)
	return nil
}

// Stop halts monitoring and waits for the worker to exit.
func (m *StoreMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *StoreMonitor) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer m.wg.Done()
	defer watcher.Close()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	m.checkExpiry(ctx)

	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.logger.Info("store file changed", "file", event.Name, "op", event.Op.String())
				if m.onChange != nil {
					m.onChange(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("store watcher error", "error", err)
		case <-ticker.C:
			m.checkExpiry(ctx)
		}
	}
}

// checkExpiry re-reads the key store and warns when the leaf certificate
// is inside the warning window. Load failures are logged, not fatal; the
// next build call will surface them to the caller.
func (m *StoreMonitor) checkExpiry(ctx context.Context) {
	if !m.params.HasKeyStore() {
		return
	}

	cert, err := loadKeyStore(m.params.KeyStore)
	if err != nil {
		m.logger.ErrorContext(ctx, "key store unreadable during expiry check",
			"store", m.params.KeyStore.Path, "error", err)
		return
	}

	leaf := cert.Leaf
	if leaf == nil {
		return
	}

	remaining := time.Until(leaf.NotAfter)
	switch {
	case remaining <= 0:
		m.logger.ErrorContext(ctx, "key store certificate has expired",
			"store", m.params.KeyStore.Path,
			"subject", leaf.Subject.String(),
			"not_after", leaf.NotAfter)
	case remaining <= m.warningWindow:
		m.logger.WarnContext(ctx, "key store certificate expires soon",
			"store", m.params.KeyStore.Path,
			"subject", leaf.Subject.String(),
			"not_after", leaf.NotAfter,
			"days_remaining", int(remaining.Hours()/24))
	}
}

func (m *StoreMonitor) storePaths() []string {
	var paths []string
	if m.params.HasKeyStore() {
		paths = append(paths, m.params.KeyStore.Path)
	}
	if m.params.HasTrustStore() {
		paths = append(paths, m.params.TrustStore.Path)
	}
	return paths
}
