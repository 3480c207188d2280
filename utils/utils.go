package utils

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RemoveFileIfExists removes path and treats a missing file as success.
func RemoveFileIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveIO attempts to remove dir and optionally its content. Can ignore error,
// for example if folder does not exist.
func RemoveIO(dir string, recursive, ignoreError bool) error {
	var err error
	if recursive {
		err = os.RemoveAll(dir)
	} else {
		err = os.Remove(dir)
	}

	if ignoreError {
		return nil
	}
	return err
}

// LimitedBuffer keeps at most Limit bytes and silently drops the rest while
// still reporting full writes, so a chatty process never blocks on its pipe.
// A Limit of zero or less means unbounded. Safe for concurrent writers.
type LimitedBuffer struct {
	Limit int

	mu        sync.Mutex
	buf       bytes.Buffer
	truncated bool
}

func (b *LimitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Limit <= 0 {
		return b.buf.Write(p)
	}
	remaining := b.Limit - b.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *LimitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Truncated reports whether any write was cut off.
func (b *LimitedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// CreateTarFromFile packs a single file into a tar stream under name, owned by
// uid:gid with the given mode. Used to ship executables into containers.
func CreateTarFromFile(srcPath, name string, mode int64, uid, gid int) (io.ReadCloser, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "tar", Path: srcPath, Err: errors.New("is a directory")}
	}

	pipeReader, pipeWriter := io.Pipe()

	go func() {
		tarWriter := tar.NewWriter(pipeWriter)

		err := func() error {
			file, err := os.Open(srcPath)
			if err != nil {
				return err
			}
			defer file.Close()

			header := &tar.Header{
				Name:     filepath.ToSlash(name),
				Mode:     mode,
				Size:     info.Size(),
				Uid:      uid,
				Gid:      gid,
				ModTime:  info.ModTime(),
				Typeflag: tar.TypeReg,
			}
			if err := tarWriter.WriteHeader(header); err != nil {
				return err
			}
			if _, err := io.Copy(tarWriter, file); err != nil {
				return err
			}
			return tarWriter.Close()
		}()

		pipeWriter.CloseWithError(err)
	}()

	return pipeReader, nil
}

// ExtractTarArchive extracts a tar archive to a directory.
func ExtractTarArchive(reader io.Reader, dstPath string) error {
	tarReader := tar.NewReader(reader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dstPath, filepath.Clean("/"+header.Name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeTarEntry(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeTarEntry(target string, r io.Reader, mode os.FileMode) error {
	file, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, r)
	return err
}
