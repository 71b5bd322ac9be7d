// Package exposition publishes registry snapshots to Prometheus scrapers.
//
// The Exporter does not gather on every scrape. A refresher goroutine gathers
// a snapshot on a fixed interval and the HTTP handler serves the latest one,
// so scrapes never contend with the shell for the registry lock. Optionally
// the same refresher pushes to a Graphite/Carbon endpoint.
package exposition

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/graphite"
	"github.com/prometheus/common/expfmt"

	"github.com/getmockd/pesh/pkg/logging"
)

// DefaultAddress is the default bind address of the scrape endpoint.
const DefaultAddress = "127.0.0.1:9000"

// DefaultInterval is the default snapshot refresh interval.
const DefaultInterval = time.Second

// contentType is the Prometheus text exposition format.
const contentType = "text/plain; version=0.0.4; charset=utf-8"

// graphitePrefix prefixes every metric pushed to Graphite.
const graphitePrefix = "pesh"

// Config configures an Exporter.
type Config struct {
	// Address is the host:port to listen on.
	Address string

	// Interval is how often the snapshot is refreshed.
	Interval time.Duration

	// GraphiteAddress, when set, is a host:port that receives a Graphite
	// plaintext push on every refresh.
	GraphiteAddress string

	// Logger receives refresh and push failures.
	Logger *slog.Logger
}

// Exporter serves periodic snapshots of a prometheus.Gatherer over HTTP.
type Exporter struct {
	gatherer prometheus.Gatherer
	cfg      Config
	log      *slog.Logger
	bridge   *graphite.Bridge

	mu       sync.RWMutex
	snapshot []byte
	updated  time.Time

	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// New validates cfg and creates an Exporter. It does not start listening.
func New(g prometheus.Gatherer, cfg Config) (*Exporter, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if _, err := net.ResolveTCPAddr("tcp", cfg.Address); err != nil {
		return nil, errors.Wrapf(err, "failed to parse address %q", cfg.Address)
	}

	e := &Exporter{
		gatherer: g,
		cfg:      cfg,
		log:      cfg.Logger,
	}
	if e.log == nil {
		e.log = logging.Nop()
	}

	if cfg.GraphiteAddress != "" {
		bridge, err := graphite.NewBridge(&graphite.Config{
			URL:           cfg.GraphiteAddress,
			Gatherer:      g,
			Prefix:        graphitePrefix,
			Interval:      cfg.Interval,
			Timeout:       cfg.Interval,
			ErrorHandling: graphite.ContinueOnError,
			Logger: loggerFunc(func(v ...interface{}) {
				e.log.Warn("graphite push", "detail", v)
			}),
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure graphite push")
		}
		e.bridge = bridge
	}

	return e, nil
}

type loggerFunc func(...interface{})

// Println implements graphite.Logger.
func (lf loggerFunc) Println(v ...interface{}) {
	lf(v...)
}

// Start binds the listen address, takes a first snapshot and starts the
// refresher and the HTTP server. A bind failure is returned immediately.
func (e *Exporter) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "cannot bind exposition address %s", e.cfg.Address)
	}
	e.listener = ln

	if err := e.Refresh(); err != nil {
		e.log.Warn("initial snapshot failed", "error", err)
	}

	e.server = &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("exposition server stopped", "error", err)
		}
	}()

	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.run(ctx)

	e.log.Info("exporter listening", "address", ln.Addr().String(), "interval", e.cfg.Interval)
	return nil
}

func (e *Exporter) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(); err != nil {
				e.log.Warn("snapshot failed", "error", err)
			}
			if e.bridge != nil {
				if err := e.bridge.Push(); err != nil {
					e.log.Warn("graphite push failed", "address", e.cfg.GraphiteAddress, "error", err)
				}
			}
		}
	}
}

// Refresh gathers a new snapshot and makes it the one served to scrapers.
// On failure the previous snapshot stays in place.
func (e *Exporter) Refresh() error {
	families, err := e.gatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "gather")
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return errors.Wrapf(err, "encode %s", mf.GetName())
		}
	}

	e.mu.Lock()
	e.snapshot = buf.Bytes()
	e.updated = time.Now()
	e.mu.Unlock()
	return nil
}

// Snapshot returns the text currently served to scrapers and when it was
// taken.
func (e *Exporter) Snapshot() ([]byte, time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot, e.updated
}

// Handler returns the HTTP handler serving /metrics (also at /) and /healthz.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, _ := e.Snapshot()
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	})
	mux.Handle("/metrics", metrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		metrics.ServeHTTP(w, req)
	})
	return mux
}

// Addr returns the bound address, or nil before Start.
func (e *Exporter) Addr() net.Addr {
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Shutdown stops the refresher and gracefully stops the HTTP server.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
