package shell

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/eapache/queue"
)

// DefaultHistorySize is the number of lines kept when no size is configured.
const DefaultHistorySize = 1000

// History is a bounded list of input lines, most recent last. It implements
// term.History so the line editor can browse it with the arrow keys.
//
// Blank lines, lines starting with a space and repeats of the most recent
// line are not recorded.
type History struct {
	mu      sync.Mutex
	entries *queue.Queue
	max     int
}

// NewHistory creates a History holding at most max lines.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{entries: queue.New(), max: max}
}

// Add records entry.
func (h *History) Add(entry string) {
	if strings.TrimSpace(entry) == "" || strings.HasPrefix(entry, " ") {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := h.entries.Length(); n > 0 && h.entries.Get(n-1).(string) == entry {
		return
	}
	h.entries.Add(entry)
	for h.entries.Length() > h.max {
		h.entries.Remove()
	}
}

// Len returns the number of recorded lines.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries.Length()
}

// At returns a recorded line. Index 0 is the most recent line. It panics if
// idx is out of range.
func (h *History) At(idx int) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries.Get(h.entries.Length() - 1 - idx).(string)
}

// Entries returns the recorded lines, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, h.entries.Length())
	for i := range out {
		out[i] = h.entries.Get(i).(string)
	}
	return out
}

// Load appends the lines of the file at path. A missing file is not an error.
func (h *History) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to load history")
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		h.Add(s.Text())
	}
	return errors.Wrap(s.Err(), "failed to load history")
}

// Save writes the recorded lines to path, creating its directory. The file is
// replaced atomically.
func (h *History) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "failed to save history")
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return errors.Wrap(err, "failed to save history")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	w := bufio.NewWriter(tmp)
	for _, line := range h.Entries() {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to save history")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to save history")
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return errors.Wrap(err, "failed to save history")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "failed to save history")
}

// DefaultHistoryFile returns the per-user history location,
// <user cache dir>/pesh/history.
func DefaultHistoryFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine application directory")
	}
	return filepath.Join(dir, "pesh", "history"), nil
}
