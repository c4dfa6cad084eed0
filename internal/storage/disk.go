package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// CatalogDiskUsage returns the bytes used by the SQLite catalog at dbPath, including
// its WAL and shared-memory sidecar files. In-memory catalogs report 0.
func CatalogDiskUsage(dbPath string) (int64, error) {
	if dbPath == "" || dbPath == MemoryPath {
		return 0, nil
	}
	return DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm")
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
