// Package filestore performs whole-file text reads and writes.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Op names the operation an IoError came from.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// IoError is a failed read or write.
type IoError struct {
	Op   Op
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Store reads and writes single files. It never creates directories and never
// retries.
type Store struct {
	perm os.FileMode
}

func New() *Store {
	return &Store{perm: 0o644}
}

// Read returns the full contents of dir/name.
func (s *Store) Read(dir, name string) (string, error) {
	path := filepath.Join(dir, name)

	f, err := os.Open(path)
	if err != nil {
		return "", &IoError{Op: OpRead, Path: path, Err: err}
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return "", &IoError{Op: OpRead, Path: path, Err: err}
	}
	return string(b), nil
}

// Write creates or truncates dir/name and writes text to it. The directory
// must already exist.
func (s *Store) Write(dir, name, text string) (err error) {
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.perm)
	if err != nil {
		return &IoError{Op: OpWrite, Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IoError{Op: OpWrite, Path: path, Err: cerr}
		}
	}()

	if _, err := io.WriteString(f, text); err != nil {
		return &IoError{Op: OpWrite, Path: path, Err: err}
	}
	return nil
}
