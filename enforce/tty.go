package enforce

import "golang.org/x/term"

// TTYRestore undoes the effect of EnterRawMode.
type TTYRestore func() error

// EnterRawMode puts fd into raw mode if it is a terminal, returning a
// restore function to call on exit (including on a violation kill) so a
// supervised process that dies mid-line doesn't leave the caller's shell
// in a broken state. It is a no-op (nil restore, nil error) when fd is
// not a terminal.
func EnterRawMode(fd int) (TTYRestore, error) {
	if !term.IsTerminal(fd) {
		return nil, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, state) }, nil
}
