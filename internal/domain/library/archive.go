package library

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Archive streams a tar.gz bundle of the whole library to w and returns
// the number of documents written. Entries are ordered by the listing, so
// the same library always produces the same member sequence.
func (m *Manager) Archive(ctx context.Context, w io.Writer) (int, error) {
	entries, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	var files int
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			tw.Close()
			gz.Close()
			return files, ctx.Err()
		default:
		}

		path := filepath.Join(m.root, filepath.FromSlash(entry.Path))
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			continue
		}
		header.Name = entry.Path

		if err := tw.WriteHeader(header); err != nil {
			tw.Close()
			gz.Close()
			return files, fmt.Errorf("archive %q: %w", entry.Path, err)
		}
		if err := copyFile(tw, path); err != nil {
			tw.Close()
			gz.Close()
			return files, fmt.Errorf("archive %q: %w", entry.Path, err)
		}
		files++
	}

	if err := tw.Close(); err != nil {
		gz.Close()
		return files, fmt.Errorf("finish archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return files, fmt.Errorf("finish archive: %w", err)
	}
	return files, nil
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(dst, f)
	return err
}
