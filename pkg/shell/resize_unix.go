//go:build unix

package shell

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// terminalSize returns the width and height of the terminal on fd.
func terminalSize(fd int) (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}

// watchResize keeps the line editor's size in step with the terminal until
// the returned function is called.
func (s *Shell) watchResize() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ch:
				if w, h, err := terminalSize(s.fd); err == nil {
					_ = s.term.SetSize(w, h)
				}
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
