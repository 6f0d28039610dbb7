package artifacts

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
)

// snappyStreamHeader is the stream identifier chunk every snappy stream starts with
var snappyStreamHeader = []byte("\xff\x06\x00\x00sNaPpY")

// writeJSON encodes v to path through a temp file and rename, so a reader
// never sees a partial artifact
func writeJSON(path string, v interface{}, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := encode(tmp, v, opts); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func encode(w io.Writer, v interface{}, opts Options) error {
	if !opts.Compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(v); err != nil {
		_ = sw.Close()
		return err
	}
	return sw.Close()
}

// readJSON decodes path into v, detecting a snappy stream by its header
func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if head, _ := br.Peek(len(snappyStreamHeader)); bytes.Equal(head, snappyStreamHeader) {
		r = snappy.NewReader(br)
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
