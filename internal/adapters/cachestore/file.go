package cachestore

import (
	"cmp"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// formatVersion is bumped whenever the persisted layout changes incompatibly.
// Files with another version are treated as corrupt.
const formatVersion = 1

type storeFile struct {
	Version int          `json:"version"`
	Records []fileRecord `json:"records"`
}

type fileRecord struct {
	Target    string            `json:"target"`
	Path      string            `json:"path"`
	LastWrite int64             `json:"lastWrite"`
	Size      int64             `json:"size"`
	Digest    string            `json:"digest"`
	Data      map[string]string `json:"data,omitempty"`
}

// readRecords loads a store file. A missing file yields an empty map.
// Decoding failures are returned so the caller can report corruption.
func readRecords(path string) (map[domain.CacheKey]*domain.CacheRecord, error) {
	records := make(map[domain.CacheKey]*domain.CacheRecord)

	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the project root or the cache dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records, nil
		}
		return records, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", path)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return records, zerr.With(zerr.Wrap(err, domain.ErrCacheCorrupt.Error()), "path", path)
	}
	if file.Version != formatVersion {
		return records, zerr.With(zerr.With(zerr.Wrap(domain.ErrCacheVersionUnsupported, domain.ErrCacheCorrupt.Error()), "path", path), "version", file.Version)
	}

	for _, r := range file.Records {
		records[domain.CacheKey{Target: r.Target, Path: r.Path}] = &domain.CacheRecord{
			Fingerprint: domain.Fingerprint{LastWrite: r.LastWrite, Size: r.Size, Digest: r.Digest},
			Data:        r.Data,
			NeedsUpdate: true,
		}
	}
	return records, nil
}

// writeRecords persists records atomically, sorted by key.
func writeRecords(path string, records map[domain.CacheKey]*domain.CacheRecord) error {
	file := storeFile{Version: formatVersion, Records: make([]fileRecord, 0, len(records))}
	for key, rec := range records {
		file.Records = append(file.Records, fileRecord{
			Target:    key.Target,
			Path:      key.Path,
			LastWrite: rec.Fingerprint.LastWrite,
			Size:      rec.Fingerprint.Size,
			Digest:    rec.Fingerprint.Digest,
			Data:      rec.Data,
		})
	}
	slices.SortFunc(file.Records, func(a, b fileRecord) int {
		return cmp.Or(cmp.Compare(a.Target, b.Target), cmp.Compare(a.Path, b.Path))
	})

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := atomicWriteFile(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", path)
	}
	return nil
}

// atomicWriteFile writes through a temp file in the target directory and renames it into place,
// so readers never observe a partial file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create cache directory")
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp cache file")
	}
	tmpName := tmpFile.Name()
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to write cache file")
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp cache file")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod cache file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.Wrap(err, "failed to rename temp cache file")
	}
	return nil
}
