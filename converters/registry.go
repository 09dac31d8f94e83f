package converters

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/darianmavgo/dumpsql/converters/common"
)

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]common.Format)
)

// Register makes an output format available by the provided name.
// If Register is called twice with the same name or if format is nil, it panics.
func Register(name string, format common.Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	if format == nil {
		panic("converters: Register format is nil")
	}
	if _, dup := formats[name]; dup {
		panic("converters: Register called twice for format " + name)
	}
	formats[name] = format
}

// Lookup returns the format registered under name.
func Lookup(name string) (common.Format, error) {
	formatsMu.RLock()
	format, ok := formats[name]
	formatsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("converters: %w %q (forgotten import?)", common.ErrUnknownFormat, name)
	}
	return format, nil
}

// Export writes provider to writer in the named format.
func Export(name string, provider common.RowProvider, writer io.Writer) error {
	format, err := Lookup(name)
	if err != nil {
		return err
	}
	return format.Export(provider, writer)
}

// Formats returns a sorted list of the names of the registered formats.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	list := make([]string, 0, len(formats))
	for name := range formats {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}
