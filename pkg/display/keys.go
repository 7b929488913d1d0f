package display

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// IsQuitKey reports whether the bytes of a single read are a quit request:
// a lone Escape (escape sequences like arrow keys are longer), q or Ctrl-C.
func IsQuitKey(buf []byte) bool {
	if len(buf) == 1 && buf[0] == keyEsc {
		return true
	}
	for _, b := range buf {
		switch b {
		case 'q', 'Q', keyCtrlC:
			return true
		case keyEsc:
			return false
		}
	}
	return false
}

// KeyWatcher reads key presses from a terminal in raw mode
type KeyWatcher struct {
	fd       int
	oldState *term.State
	once     sync.Once
}

// WatchKeys puts in into raw mode and calls onQuit once a quit key is
// pressed. If in is not a terminal no keys are read and Raw reports false.
func WatchKeys(in *os.File, onQuit func()) (*KeyWatcher, error) {
	ret := &KeyWatcher{fd: int(in.Fd())}
	if !isatty.IsTerminal(in.Fd()) {
		return ret, nil
	}
	state, err := term.MakeRaw(ret.fd)
	if err != nil {
		return nil, err
	}
	ret.oldState = state
	go readKeys(in, onQuit)
	return ret, nil
}

func (k *KeyWatcher) Raw() bool {
	return k.oldState != nil
}

// Close restores the previous terminal state
func (k *KeyWatcher) Close() error {
	var err error
	k.once.Do(func() {
		if k.oldState != nil {
			err = term.Restore(k.fd, k.oldState)
		}
	})
	return err
}

func readKeys(r io.Reader, onQuit func()) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 && IsQuitKey(buf[:n]) {
			onQuit()
			return
		}
		if err != nil {
			return
		}
	}
}
