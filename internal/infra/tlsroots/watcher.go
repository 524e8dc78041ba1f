package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher presents the RESP listener's key pair and swaps it in place
// when the files on disk are replaced. A pair that fails to load is
// logged and the previous one stays in service.
type Watcher struct {
	certFile, keyFile string
	logger            *slog.Logger
	debounce          time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate

	pendingMu sync.Mutex
	pending   *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets how long file events must settle before a reload.
// Editors and cert-manager style tools write the pair in several steps.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher loads the pair once; it fails if that first load fails.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		logger:   slog.Default(),
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.load(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// Start follows the certificate and key until Stop is called.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Atomic replacement renames over the file, which only the parent
	// directory sees.
	for _, dir := range w.dirs() {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch dir %s: %w", dir, err)
		}
	}
	w.logger.Info("watching tls key pair", "cert_file", w.certFile, "key_file", w.keyFile)

	for {
		select {
		case <-w.done:
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("tls watcher error", "error", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.concerns(ev) {
				w.logger.Debug("tls file changed", "file", ev.Name, "op", ev.Op.String())
				w.schedule()
			}
		}
	}
}

// StartAsync runs Start in a goroutine and logs how it ended.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Error("tls watcher stopped", "error", err)
		}
	}()
}

// Stop ends watching and cancels a pending reload. Extra calls are no-ops.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.pending != nil {
			w.pending.Stop()
		}
		w.pendingMu.Unlock()
	})
}

// GetCertificate has the signature of tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// ServerTLSConfig is the listener configuration; each handshake picks up
// the pair that is current at that moment.
func (w *Watcher) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

func (w *Watcher) dirs() []string {
	certDir, keyDir := filepath.Dir(w.certFile), filepath.Dir(w.keyFile)
	if certDir == keyDir {
		return []string{certDir}
	}
	return []string{certDir, keyDir}
}

func (w *Watcher) concerns(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == w.certFile || name == w.keyFile
}

// schedule restarts the debounce timer; the reload runs once events stop.
func (w *Watcher) schedule() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending != nil {
		w.pending.Reset(w.debounce)
		return
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if err := w.load(); err != nil {
			w.logger.Error("tls key pair reload failed, keeping previous",
				"error", err, "cert_file", w.certFile, "key_file", w.keyFile)
		}
	})
}

func (w *Watcher) load() error {
	pair, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	w.mu.Lock()
	w.cert = &pair
	w.mu.Unlock()
	w.logger.Info("tls key pair loaded", "cert_file", w.certFile)
	return nil
}
