package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMakeCallbackFileName(t *testing.T) {
	params := &BufferCallbackParams{}

	if got := MakeCallbackFileName(params, ""); got != "" {
		t.Errorf("empty path should stay empty, got %q", got)
	}

	first := MakeCallbackFileName(params, "video.mp4")
	if !strings.HasPrefix(first, "callback://") || !strings.HasSuffix(first, "/video.mp4") {
		t.Fatalf("unexpected callback file name %q", first)
	}

	// Same params must map to the same identity.
	second := MakeCallbackFileName(params, "video.mp4")
	if first != second {
		t.Errorf("same params produced different names: %q vs %q", first, second)
	}

	other := MakeCallbackFileName(&BufferCallbackParams{}, "video.mp4")
	if other == first {
		t.Errorf("distinct params should produce distinct names")
	}
}

func TestCallbackReadWrite(t *testing.T) {
	written := map[string][]byte{}
	params := &BufferCallbackParams{
		Read: func(name string) ([]byte, error) {
			return []byte("content of " + name), nil
		},
		Write: func(name string, data []byte) error {
			written[name] = data
			return nil
		},
	}

	in := MakeCallbackFileName(params, "in.vtt")
	data, err := ReadFileToString(in)
	if err != nil {
		t.Fatalf("ReadFileToString: %v", err)
	}
	if string(data) != "content of in.vtt" {
		t.Errorf("unexpected read content %q", data)
	}

	out := MakeCallbackFileName(params, "out.vtt")
	if err := WriteFile(out, []byte("hello")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if string(written["out.vtt"]) != "hello" {
		t.Errorf("write callback did not receive content: %v", written)
	}
}

func TestCopyLocal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vtt")
	dst := filepath.Join(dir, "dst.vtt")

	if err := os.WriteFile(src, []byte("WEBVTT\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "WEBVTT\n" {
		t.Errorf("unexpected copy content %q", data)
	}
}
