package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fsanano/economy/internal/model"
)

// maxLoggedContent bounds how much of a corrupted document is logged.
const maxLoggedContent = 512

// document is one JSON-array file. mu serializes every read-modify-write
// cycle on it.
type document[T any] struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

func newDocument[T any](path string, log *slog.Logger) *document[T] {
	return &document[T]{path: path, log: log.With(slog.String("path", path))}
}

// ensure creates the document as an empty array when it does not exist.
func (d *document[T]) ensure() error {
	_, err := os.Stat(d.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", d.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", d.path, err)
	}
	d.log.Info("initializing empty storage document")
	return d.writeRaw([]byte("[]"))
}

func (d *document[T]) readRaw() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	return data, nil
}

// read decodes the whole document. Anything that is not a JSON array of
// records is reported as model.ErrStorageCorruption.
func (d *document[T]) read() ([]T, error) {
	data, err := d.readRaw()
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		d.logCorruption(data, errors.New("document is not an array"))
		return nil, fmt.Errorf("%s: %w: not an array", d.path, model.ErrStorageCorruption)
	}

	var records []T
	if err := json.Unmarshal(trimmed, &records); err != nil {
		d.logCorruption(data, err)
		return nil, fmt.Errorf("%s: %w: %v", d.path, model.ErrStorageCorruption, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (d *document[T]) write(records []T) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	return d.writeRaw(data)
}

// writeRaw replaces the document through a temp file and rename, so readers
// never observe a half-written array.
func (d *document[T]) writeRaw(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", d.path, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}

func (d *document[T]) logCorruption(data []byte, err error) {
	content := data
	if len(content) > maxLoggedContent {
		content = content[:maxLoggedContent]
	}
	d.log.Error("storage document is corrupted",
		slog.String("content", string(content)),
		slog.Int("size", len(data)),
		slog.Any("error", err),
	)
}
