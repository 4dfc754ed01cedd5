package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/memegate/internal/state"
)

// FileStore implementa ports.StateRepository sobre un único archivo JSON.
type FileStore struct {
	path string
}

// NewFileStore devuelve un FileStore para path. El directorio se crea en el primer Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path devuelve la ruta del documento.
func (f *FileStore) Path() string { return f.path }

// Load lee el documento. Si el archivo no existe devuelve uno nuevo.
func (f *FileStore) Load(_ context.Context) (*state.State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return state.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.FileStore.Load %q: %w", f.path, err)
	}
	st, err := state.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("storage.FileStore.Load %q: %w", f.path, err)
	}
	return st, nil
}

// Save escribe a un temporal en el mismo directorio, hace fsync y renombra.
// Un crash a mitad deja el documento anterior intacto.
func (f *FileStore) Save(_ context.Context, st *state.State) error {
	data, err := state.Encode(st)
	if err != nil {
		return fmt.Errorf("storage.FileStore.Save: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage.FileStore.Save: mkdir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage.FileStore.Save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op después del rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.FileStore.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.FileStore.Save: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage.FileStore.Save: close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage.FileStore.Save: rename: %w", err)
	}

	// fsync del directorio para que el rename sobreviva a un corte de luz
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
