package app

import (
	"os"
	"sync"
)

// Terminal is the console output shared by the program renderer and the
// bell. Writes are serialized, and the renderer flushes each frame in a
// single Write, so a bell never lands inside a frame. The embedded file
// keeps terminal detection and sizing working.
type Terminal struct {
	*os.File
	mu sync.Mutex
}

// NewTerminal wraps f, usually os.Stdout.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{File: f}
}

// Write writes p while holding the output lock.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.File.Write(p)
}
