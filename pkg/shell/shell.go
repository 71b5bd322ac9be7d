// Package shell reads command lines from the operator.
//
// On a terminal the shell puts stdin into raw mode and runs a line editor
// (golang.org/x/term) with history browsing and tab completion of command
// words and metric names. Otherwise it reads plain newline-terminated lines,
// which keeps piped scripts working. Both modes record lines into the same
// History, which is loaded from and saved to a file when one is configured.
package shell

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// DefaultPrompt is printed in front of every line on a terminal.
const DefaultPrompt = "pesh> "

// Config configures a Shell.
type Config struct {
	// Prompt defaults to DefaultPrompt.
	Prompt string

	// HistoryFile is where history is loaded from and saved to. Empty keeps
	// history in memory only.
	HistoryFile string

	// HistorySize bounds the history; defaults to DefaultHistorySize.
	HistorySize int

	// Names, when set, supplies metric names for completion after set, del
	// and get.
	Names func() []string

	// In and Out default to os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer
}

// Shell is a source of input lines.
type Shell struct {
	cfg     Config
	history *History
	// loaded is set once the history file was read successfully. History is
	// only written back after that, so a failed or skipped load never
	// replaces the stored lines.
	loaded bool

	// terminal mode
	term       *term.Terminal
	raw        io.Writer
	fd         int
	oldState   *term.State
	stopResize func()

	// plain mode
	scanner *bufio.Scanner
	out     io.Writer
}

// New creates a Shell. If cfg.In is a terminal it is switched to raw mode
// until Close.
func New(cfg Config) (*Shell, error) {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}

	if f, ok := cfg.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, errors.Wrap(err, "failed to set terminal to raw mode")
		}
		s := newTerminalShell(cfg, struct {
			io.Reader
			io.Writer
		}{cfg.In, cfg.Out})
		s.fd = fd
		s.oldState = oldState
		if w, h, err := terminalSize(fd); err == nil {
			_ = s.term.SetSize(w, h)
		}
		s.stopResize = s.watchResize()
		return s, nil
	}

	return newPlainShell(cfg), nil
}

func newTerminalShell(cfg Config, rw io.ReadWriter) *Shell {
	s := &Shell{
		cfg:     cfg,
		history: NewHistory(cfg.HistorySize),
	}
	s.term = term.NewTerminal(rw, cfg.Prompt)
	s.raw = rw
	s.term.History = s.history
	s.term.AutoCompleteCallback = s.complete
	s.out = s.term
	return s
}

func newPlainShell(cfg Config) *Shell {
	return &Shell{
		cfg:     cfg,
		history: NewHistory(cfg.HistorySize),
		scanner: bufio.NewScanner(cfg.In),
		out:     cfg.Out,
	}
}

// Interactive reports whether the shell runs the terminal line editor.
func (s *Shell) Interactive() bool { return s.term != nil }

// Output is where command results should be written. On a terminal it
// translates line endings for raw mode and redraws the prompt around the
// output.
func (s *Shell) Output() io.Writer { return s.out }

// History returns the shell's history.
func (s *Shell) History() *History { return s.history }

// LoadHistory loads the configured history file, if any. Close saves history
// only after a successful LoadHistory.
func (s *Shell) LoadHistory() error {
	if s.cfg.HistoryFile == "" {
		return nil
	}
	if err := s.history.Load(s.cfg.HistoryFile); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// when input ends; on a terminal Ctrl-D on an empty line and Ctrl-C also end
// input.
func (s *Shell) ReadLine() (string, error) {
	if s.term != nil {
		line, err := s.term.ReadLine()
		if errors.Is(err, term.ErrPasteIndicator) {
			return line, nil
		}
		return line, err
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read line")
		}
		return "", io.EOF
	}
	line := strings.TrimSuffix(s.scanner.Text(), "\r")
	s.history.Add(line)
	return line, nil
}

// Close saves history, if it was loaded, and restores the terminal. The
// terminal is restored even if saving fails.
func (s *Shell) Close() error {
	var err error
	if s.cfg.HistoryFile != "" && s.loaded {
		err = s.history.Save(s.cfg.HistoryFile)
	}
	if s.raw != nil {
		// Leave the cursor below the last prompt.
		_, _ = io.WriteString(s.raw, "\r\n")
	}
	if s.stopResize != nil {
		s.stopResize()
		s.stopResize = nil
	}
	if s.oldState != nil {
		err = errors.CombineErrors(err, term.Restore(s.fd, s.oldState))
		s.oldState = nil
	}
	return err
}

func (s *Shell) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}

	var names []string
	if s.cfg.Names != nil {
		names = s.cfg.Names()
	}
	newLine, newPos, candidates := Complete(line, pos, names)
	if len(candidates) > 1 && newPos == pos {
		_, _ = s.term.Write([]byte(strings.Join(candidates, "  ") + "\n"))
	}
	return newLine, newPos, true
}
