package emu

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// testConsole is a console whose input is fed through a channel. GetChar
// blocks until a character is sent or the console is closed.
type testConsole struct {
	in   chan uint8
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	out []byte
}

func newTestConsole() *testConsole {
	return &testConsole{
		in:   make(chan uint8, 16),
		done: make(chan struct{}),
	}
}

func (c *testConsole) Ready() bool { return len(c.in) > 0 }

func (c *testConsole) GetChar() uint8 {
	select {
	case ch := <-c.in:
		return ch
	case <-c.done:
		return 0
	}
}

func (c *testConsole) PutChar(ch uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, ch)
}

func (c *testConsole) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.out)
}

func (c *testConsole) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *testConsole) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// writeFile writes buf into a file in a temporary directory and returns its
// path.
func writeFile(t *testing.T, name string, buf []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// bootImage returns a boot image made of prog followed, at offset, by data.
func bootImage(prog []byte, offset int, data []byte) []byte {
	img := make([]byte, offset+len(data))
	copy(img, prog)
	copy(img[offset:], data)
	return img
}
