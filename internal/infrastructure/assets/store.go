// Package assets stores the raw captures of a search (HTML, JSON,
// screenshots) on the local filesystem, optionally gzip-compressed.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// FileStore implements domain.AssetStore on a directory. Relative paths
// are resolved against Root.
type FileStore struct {
	Root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create asset directory %s: %w", root, err)
	}
	return &FileStore{Root: root}, nil
}

func (s *FileStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Root, path)
}

// Write stores contents at path, gzip-compressed when compress is true.
func (s *FileStore) Write(ctx context.Context, path string, contents []byte, compress bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	data := contents
	if compress {
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return err
		}
		if _, err := zw.Write(contents); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write asset %s: %w", path, err)
	}
	return nil
}

// Read loads the contents at path. Files ending in .gz are decompressed.
func (s *FileStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}
