// Package fileid provides document IDs and change stamps for ingested files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

const (
	filePrefix   = "file:"
	uploadPrefix = "doc:"
)

// FileDocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID, so re-ingesting a watched file replaces its catalog entry.
func FileDocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:16])
}

// NewDocID returns a fresh random ID for uploads and raw text documents.
func NewDocID() string {
	return uploadPrefix + uuid.New().String()
}

// Metadata keys under which a Stamp is stored on a catalogued document.
const (
	MetaSourcePath  = "source_path"
	MetaSourceMtime = "source_mtime"
	MetaSourceSize  = "source_size"
)

// Stamp identifies one version of a file on disk.
type Stamp struct {
	Path    string
	ModTime int64 // UnixNano
	Size    int64
}

// StampOf builds the stamp for absPath from its FileInfo.
func StampOf(absPath string, info os.FileInfo) Stamp {
	return Stamp{Path: absPath, ModTime: info.ModTime().UnixNano(), Size: info.Size()}
}

// Metadata returns the stamp as string metadata.
// Integers are stored as decimal strings; UnixNano does not fit a JSON float64.
func (s Stamp) Metadata() map[string]string {
	return map[string]string{
		MetaSourcePath:  s.Path,
		MetaSourceMtime: strconv.FormatInt(s.ModTime, 10),
		MetaSourceSize:  strconv.FormatInt(s.Size, 10),
	}
}

// Matches reports whether metadata was recorded for exactly this file version.
func (s Stamp) Matches(metadata map[string]string) bool {
	if metadata == nil || metadata[MetaSourcePath] != s.Path {
		return false
	}
	mtime, err := strconv.ParseInt(metadata[MetaSourceMtime], 10, 64)
	if err != nil {
		return false
	}
	size, err := strconv.ParseInt(metadata[MetaSourceSize], 10, 64)
	if err != nil {
		return false
	}
	return mtime == s.ModTime && size == s.Size
}
