package bundle

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// modTime is stamped on every entry so identical inputs give identical bytes.
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// HashLength is the number of hex characters used in content-hashed names.
const HashLength = 16

// File is one archive entry.
type File struct {
	Name string
	Data []byte
}

// Archive collects entries and serializes them deterministically.
type Archive struct {
	files []File
	names map[string]struct{}
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{names: make(map[string]struct{})}
}

// Add appends an entry. Names must be unique slash-separated relative paths.
func (a *Archive) Add(name string, data []byte) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid archive entry name %q", name)
	}
	if _, dup := a.names[name]; dup {
		return fmt.Errorf("duplicate archive entry %q", name)
	}
	a.names[name] = struct{}{}
	a.files = append(a.files, File{Name: name, Data: data})
	return nil
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.files)
}

// Bytes writes the entries in name order with a fixed modification time.
func (a *Archive) Bytes() ([]byte, error) {
	files := slices.Clone(a.files)
	slices.SortFunc(files, func(x, y File) int { return strings.Compare(x.Name, y.Name) })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modTime,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Hash returns the truncated hex sha256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:HashLength]
}

// HashedName builds "{prefix}-{hash}{ext}" for data.
func HashedName(prefix, ext string, data []byte) string {
	return prefix + "-" + Hash(data) + ext
}

// Read lists the entries of a zip archive in stored order.
func Read(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	out := make([]File, 0, len(zr.File))
	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", entry.Name, err)
		}
		var content bytes.Buffer
		_, err = content.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", entry.Name, err)
		}
		out = append(out, File{Name: entry.Name, Data: content.Bytes()})
	}
	return out, nil
}
