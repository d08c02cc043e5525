package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

func tcheckf(tb testing.TB, err error, format string, args ...any) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s: %s\n", fmt.Sprintf(format, args...), err)
}

// tempFile writes buf into a new file named name and returns its path.
func tempFile(tb testing.TB, name string, buf []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	tcheckf(tb, os.WriteFile(path, buf, 0644), "writing %s", name)
	return path
}
