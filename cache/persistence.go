package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"ipsign.app/errors"
)

// FilePersistence stores the location domain as a JSON key-value file,
// matching the layout `{ [address]: { data, storedAt } }`.
type FilePersistence struct {
	path string
}

// NewFilePersistence creates the cache data directory and returns a
// persistence backend writing to <dir>/data/geo-cache.json.
func NewFilePersistence(dir string) (*FilePersistence, error) {
	path := filepath.Join(dir, "data", "geo-cache.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewPersistenceError("create cache directory", err)
	}
	return &FilePersistence{path: path}, nil
}

func (p *FilePersistence) Load() (map[string]Entry, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, errors.NewPersistenceError("read location cache file", err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewPersistenceError("parse location cache file", err)
	}
	return entries, nil
}

func (p *FilePersistence) Save(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("marshal location cache", err)
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return errors.NewPersistenceError("write location cache file", err)
	}
	return nil
}
