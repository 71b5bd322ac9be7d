package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/getmockd/pesh/pkg/cliconfig"
	"github.com/getmockd/pesh/pkg/exposition"
	"github.com/getmockd/pesh/pkg/interp"
	"github.com/getmockd/pesh/pkg/logging"
	"github.com/getmockd/pesh/pkg/registry"
	"github.com/getmockd/pesh/pkg/shell"
)

// shutdownTimeout bounds the graceful stop of the scrape endpoint.
const shutdownTimeout = 5 * time.Second

// Run starts the scrape endpoint and runs the read-eval loop until end of
// input, an exit command, or SIGINT/SIGTERM. Every one of those ends in the
// same shutdown: history is saved, the terminal restored and the endpoint
// stopped. Errors are returned only for startup failures.
func Run(ctx context.Context, cfg *cliconfig.CLIConfig, streams Streams) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	histPath := ""
	if !cfg.NoHistory {
		histPath = cfg.HistoryFile
		if histPath == "" {
			p, err := shell.DefaultHistoryFile()
			if err != nil {
				return err
			}
			histPath = p
		}
	}

	var logSink io.WriteCloser
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "cannot open log file %s", cfg.LogFile)
		}
		logSink = f
		defer logSink.Close()
	}

	reg := registry.NewWithRegistry()

	sh, err := shell.New(shell.Config{
		HistoryFile: histPath,
		Names:       reg.Names,
		In:          streams.In,
		Out:         streams.Out,
	})
	if err != nil {
		return err
	}

	// In raw mode stderr lines would not return the carriage, so logs share
	// the terminal writer with command output.
	logOut := streams.Err
	if sh.Interactive() {
		logOut = sh.Output()
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Format = logging.ParseFormat(cfg.LogFormat)
	logCfg.Output = logOut
	logCfg.AddSource = cfg.LogSource
	if logSink != nil {
		logCfg.File = logSink
	}
	log := logging.New(logCfg)

	exp, err := exposition.New(reg, exposition.Config{
		Address:         cfg.Address,
		Interval:        cfg.Refresh,
		GraphiteAddress: cfg.Graphite,
		Logger:          log,
	})
	if err == nil {
		err = exp.Start(ctx)
	}
	if err != nil {
		// History is not loaded yet, so this only restores the terminal.
		_ = sh.Close()
		return err
	}

	if err := sh.LoadHistory(); err != nil {
		log.Warn("history unavailable, continuing without it", "file", histPath, "error", err)
	}

	s := &session{
		shell:  sh,
		interp: interp.New(reg, interp.WithLogger(log)),
		out:    sh.Output(),
		log:    log,
	}
	s.loop(ctx)

	log.Info("shutting down", "families", reg.Len())
	for _, f := range reg.Families() {
		log.Debug("family at exit", "name", f.Name, "labels", f.LabelNames, "series", f.Series)
	}
	return s.shutdown(exp)
}

type session struct {
	shell  *shell.Shell
	interp *interp.Interpreter
	out    io.Writer
	log    *slog.Logger
}

type readResult struct {
	line string
	err  error
}

// loop reads and executes lines until input ends, an exit command runs or
// ctx is cancelled. Reads happen on a separate goroutine so a signal can
// interrupt a blocked read; the reader only reads the next line once asked
// so that output of one command precedes the next prompt.
func (s *session) loop(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	next := make(chan struct{})
	lines := make(chan readResult)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-next:
			}
			line, err := s.shell.ReadLine()
			select {
			case <-ctx.Done():
				return
			case lines <- readResult{line: line, err: err}:
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case next <- struct{}{}:
		}

		var r readResult
		select {
		case <-ctx.Done():
			return
		case r = <-lines:
		}

		if r.err != nil {
			if !errors.Is(r.err, io.EOF) {
				s.log.Error("reading input failed", "error", r.err)
			}
			return
		}

		if s.execute(r.line) {
			return
		}
	}
}

// execute runs one line and reports whether the shell should exit.
func (s *session) execute(line string) bool {
	outcome := s.interp.ExecuteLine(line)
	if outcome.Warning != nil {
		s.log.Warn(outcome.Warning.Error(), "line", line)
	}
	if outcome.Output != "" {
		text := outcome.Output
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, _ = io.WriteString(s.out, text)
	}
	return outcome.Exit
}

func (s *session) shutdown(exp *exposition.Exporter) error {
	if err := s.shell.Close(); err != nil {
		s.log.Warn("failed to save history", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := exp.Shutdown(ctx); err != nil {
		s.log.Warn("exposition shutdown", "error", err)
	}
	return nil
}
