// Package fileio abstracts file access for the packager. Paths may name
// local files, http(s) resources, or in-memory buffers driven by caller
// callbacks ("callback://" names produced by MakeCallbackFileName).
package fileio

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// BufferCallbackParams routes reads and writes through caller-supplied
// functions instead of the file system.
type BufferCallbackParams struct {
	// Read returns the full content for the named input. Nil disables
	// input rewriting.
	Read func(name string) ([]byte, error)

	// Write receives the full content for the named output. Nil disables
	// output rewriting.
	Write func(name string, data []byte) error
}

const callbackPrefix = "callback://"

// Registered callback params, keyed by identity so repeated calls with
// the same params produce the same file name.
var (
	callbackMu  sync.Mutex
	callbackIDs = map[*BufferCallbackParams]uint64{}
	callbacks   = map[uint64]*BufferCallbackParams{}
	nextID      uint64
)

// MakeCallbackFileName wraps a path into a callback file name that later
// reads and writes resolve through the given params. An empty path stays
// empty.
func MakeCallbackFileName(params *BufferCallbackParams, path string) string {
	if path == "" {
		return ""
	}
	callbackMu.Lock()
	defer callbackMu.Unlock()
	id, ok := callbackIDs[params]
	if !ok {
		nextID++
		id = nextID
		callbackIDs[params] = id
		callbacks[id] = params
	}
	return fmt.Sprintf("%s%d/%s", callbackPrefix, id, path)
}

func resolveCallback(path string) (*BufferCallbackParams, string, bool) {
	if !strings.HasPrefix(path, callbackPrefix) {
		return nil, "", false
	}
	rest := strings.TrimPrefix(path, callbackPrefix)
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return nil, "", false
	}
	id, err := strconv.ParseUint(rest[:slash], 10, 64)
	if err != nil {
		return nil, "", false
	}
	callbackMu.Lock()
	params := callbacks[id]
	callbackMu.Unlock()
	if params == nil {
		return nil, "", false
	}
	return params, rest[slash+1:], true
}

// ReadFileToString reads the entire content behind a path.
func ReadFileToString(path string) ([]byte, error) {
	if params, name, ok := resolveCallback(path); ok {
		if params.Read == nil {
			return nil, fmt.Errorf("no read callback registered for %s", name)
		}
		return params.Read(name)
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return defaultRemote.Fetch(path)
	}
	return os.ReadFile(path)
}

// WriteFile writes the entire content behind a path.
func WriteFile(path string, data []byte) error {
	if params, name, ok := resolveCallback(path); ok {
		if params.Write == nil {
			return fmt.Errorf("no write callback registered for %s", name)
		}
		return params.Write(name, data)
	}
	return os.WriteFile(path, data, 0644)
}

// Copy copies src to dst through whichever schemes the two paths use.
func Copy(src, dst string) error {
	// Local-to-local copies stream instead of buffering the whole file.
	if isLocal(src) && isLocal(dst) {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	}

	data, err := ReadFileToString(src)
	if err != nil {
		return err
	}
	return WriteFile(dst, data)
}

func isLocal(path string) bool {
	return !strings.HasPrefix(path, callbackPrefix) &&
		!strings.HasPrefix(path, "http://") &&
		!strings.HasPrefix(path, "https://") &&
		!strings.HasPrefix(path, "udp://")
}
