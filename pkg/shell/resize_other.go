//go:build !unix

package shell

import "golang.org/x/term"

func terminalSize(fd int) (width, height int, err error) {
	return term.GetSize(fd)
}

// watchResize is a no-op where the platform has no resize signal.
func (s *Shell) watchResize() (stop func()) {
	return func() {}
}
