package repl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const defaultHistorySize = 1000

// History is the REPL's line history, oldest first. It is kept in a
// plain text file, one command per line.
type History struct {
	fs      afero.Fs
	file    string
	entries []string
	maxSize int
}

// NewHistory returns a history backed by file on the local disk. An empty
// file name keeps it in memory.
func NewHistory(file string) *History {
	return newHistoryFS(afero.NewOsFs(), file)
}

func newHistoryFS(fsys afero.Fs, file string) *History {
	return &History{fs: fsys, file: file, maxSize: defaultHistorySize}
}

// DefaultHistoryFile is ~/.respkv_history, or "" without a home directory.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".respkv_history")
}

// Add appends cmd unless it repeats the last entry. The oldest entry is
// dropped once maxSize is reached.
func (h *History) Add(cmd string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if extra := len(h.entries) - h.maxSize; extra > 0 {
		h.entries = h.entries[extra:]
	}
}

// Get counts back from the newest entry, which is index 0. Out of range
// indexes yield "".
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Load appends the entries stored in the file. A missing file is an empty
// history.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	data, err := afero.ReadFile(h.fs, h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSuffix(line, "\r"); line != "" {
			h.Add(line)
		}
	}
	return nil
}

// Save replaces the file with the current entries. Commands may hold
// values the user typed, so the file is readable by its owner only.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	if err := h.fs.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}
	var b strings.Builder
	for _, e := range h.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return afero.WriteFile(h.fs, h.file, []byte(b.String()), 0o600)
}
