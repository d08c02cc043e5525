// Package term implements the machine console on top of the host terminal.
package term

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"z80box/emu/log"
)

// Number of input characters buffered before the reader goroutine blocks.
const inputBufferSize = 256

// Console is a character device reading from an io.Reader and writing to an
// io.Writer. Input is consumed by a background goroutine so that Ready
// never blocks.
type Console struct {
	in   chan uint8
	done chan struct{}
	out  io.Writer

	wmu  sync.Mutex
	wbuf [1]byte

	closeOnce sync.Once
	restore   func() error
}

// New creates a console reading characters from r and writing them to w.
func New(r io.Reader, w io.Writer) *Console {
	c := &Console{
		in:      make(chan uint8, inputBufferSize),
		done:    make(chan struct{}),
		out:     w,
		restore: func() error { return nil },
	}
	go c.readLoop(r)
	return c
}

// Open creates a console on the process standard input and output. If raw
// is set and stdin is a terminal, the terminal is put into raw mode until
// Close is called.
func Open(raw bool) (*Console, error) {
	fd := int(os.Stdin.Fd())
	restore := func() error { return nil }
	if raw && term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		restore = func() error { return term.Restore(fd, state) }
		log.ModConsole.DebugZ("terminal in raw mode").Int("fd", fd).End()
	}

	c := New(os.Stdin, os.Stdout)
	c.restore = restore
	return c, nil
}

func (c *Console) readLoop(r io.Reader) {
	defer close(c.in)

	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case c.in <- b:
			case <-c.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.ModConsole.WarnZ("console input error").Error("err", err).End()
			}
			return
		}
	}
}

// Ready reports whether an input character is buffered.
func (c *Console) Ready() bool {
	return len(c.in) > 0
}

// GetChar returns the next input character, blocking until one is
// available. It returns 0 once the input is exhausted or the console is
// closed.
func (c *Console) GetChar() uint8 {
	select {
	case b, ok := <-c.in:
		if !ok {
			return 0
		}
		return b
	case <-c.done:
		return 0
	}
}

func (c *Console) PutChar(ch uint8) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.wbuf[0] = ch
	if _, err := c.out.Write(c.wbuf[:]); err != nil {
		log.ModConsole.WarnZ("console output error").Error("err", err).End()
	}
}

// Close unblocks any pending GetChar and restores the terminal state. It is
// safe to call Close more than once.
func (c *Console) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.restore()
	})
	return err
}
