package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"strings"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Entry is one member of an inspected archive.
type Entry struct {
	Name   string
	Method uint16
	Flags  uint16
	Mode   fs.FileMode
	Size   uint64
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Listing is the ordered entry table of an archive.
type Listing struct {
	Path    string
	Entries []Entry
}

// Inspect reads the central directory of the archive at path.
func Inspect(path string) (*Listing, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, ovenerrors.NewArchiveError(path, "open", err)
	}
	defer r.Close()

	listing := &Listing{Path: path, Entries: make([]Entry, 0, len(r.File))}
	for _, f := range r.File {
		listing.Entries = append(listing.Entries, Entry{
			Name:   f.Name,
			Method: f.Method,
			Flags:  f.Flags,
			Mode:   f.Mode(),
			Size:   f.UncompressedSize64,
		})
	}
	return listing, nil
}

// Names returns the entry names in archive order.
func (l *Listing) Names() []string {
	names := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		names[i] = e.Name
	}
	return names
}

// Has reports whether an entry called name exists.
func (l *Listing) Has(name string) bool {
	_, ok := l.Find(name)
	return ok
}

// Find returns the entry called name.
func (l *Listing) Find(name string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadEntry decompresses a single entry.
func ReadEntry(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, ovenerrors.NewArchiveError(path, "open", err)
	}
	defer r.Close()
	registerDecompressors(&r.Reader)

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, ovenerrors.NewArchiveError(path, "read", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, ovenerrors.NewArchiveError(path, "read", fmt.Errorf("%s: %w", name, err))
		}
		return data, nil
	}
	return nil, ovenerrors.NewArchiveError(path, "read", fmt.Errorf("no entry %s", name))
}
