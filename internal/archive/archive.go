// Package archive writes and inspects the zip containers plugins ship in.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Convention selects how staged paths map to entry names.
type Convention int

const (
	// ConventionPlugin nests everything under a single root directory entry.
	ConventionPlugin Convention = iota
	// ConventionPackage keeps staged paths as they are.
	ConventionPackage
)

func (c Convention) String() string {
	switch c {
	case ConventionPlugin:
		return "plugin"
	case ConventionPackage:
		return "package"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// Options controls a single archive build.
type Options struct {
	Compression config.Compression
	Convention  Convention
	// RootName is the top-level directory of a plugin-convention archive.
	RootName string
	// Prologue writes the OPC entries before any staged file.
	Prologue bool
}

// Result describes a written archive.
type Result struct {
	Path    string
	Entries []string
}

// Build zips stagingRoot into outputPath, replacing any existing file.
func Build(stagingRoot, outputPath string, opts Options) (res *Result, err error) {
	m, err := methodFor(opts.Compression)
	if err != nil {
		return nil, ovenerrors.NewArchiveError(outputPath, "compress", err)
	}
	if opts.Convention == ConventionPlugin && strings.Trim(opts.RootName, "/") == "" {
		return nil, ovenerrors.NewArchiveError(outputPath, "create", fmt.Errorf("plugin archives need a root directory name"))
	}

	rootInfo, err := os.Stat(stagingRoot)
	if err != nil {
		return nil, ovenerrors.NewArchiveError(stagingRoot, "stat", err)
	}
	if !rootInfo.IsDir() {
		return nil, ovenerrors.NewArchiveError(stagingRoot, "stat", fmt.Errorf("not a directory"))
	}

	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		return nil, ovenerrors.NewArchiveError(outputPath, "remove", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, ovenerrors.NewArchiveError(outputPath, "create", err)
	}

	zipFile, err := os.Create(outputPath)
	if err != nil {
		return nil, ovenerrors.NewArchiveError(outputPath, "create", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = ovenerrors.NewArchiveError(outputPath, "close", closeErr)
		}
		if err != nil {
			_ = os.Remove(outputPath)
			res = nil
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	if m.comp != nil {
		zipWriter.RegisterCompressor(m.id, m.comp)
	}
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = ovenerrors.NewArchiveError(outputPath, "close", closeErr)
		}
	}()

	b := &builder{zw: zipWriter, method: m, output: outputPath}

	if opts.Prologue {
		for _, entry := range prologue {
			if err := b.writeBytes(entry.name, []byte(entry.content), rootInfo.ModTime()); err != nil {
				return nil, err
			}
		}
	}

	prefix := ""
	if opts.Convention == ConventionPlugin {
		root := strings.Trim(opts.RootName, "/")
		if err := b.writeDir(root+"/", rootInfo); err != nil {
			return nil, err
		}
		prefix = root + "/"
	}

	walkErr := filepath.WalkDir(stagingRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(stagingRoot, p)
		if relErr != nil {
			return relErr
		}
		return b.writeFile(p, prefix+filepath.ToSlash(rel), d)
	})
	if walkErr != nil {
		return nil, ovenerrors.NewArchiveError(outputPath, "write", walkErr)
	}

	return &Result{Path: outputPath, Entries: b.entries}, nil
}

type builder struct {
	zw      *zip.Writer
	method  method
	output  string
	entries []string
}

func (b *builder) header(name string, info fs.FileInfo) (*zip.FileHeader, error) {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return nil, fmt.Errorf("create header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = b.method.id
	header.Flags |= b.method.flags
	return header, nil
}

func (b *builder) writeDir(name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return ovenerrors.NewArchiveError(b.output, "write", err)
	}
	header.Name = name
	header.Method = zip.Store
	if _, err := b.zw.CreateHeader(header); err != nil {
		return ovenerrors.NewArchiveError(b.output, "write", fmt.Errorf("create directory entry %s: %w", name, err))
	}
	b.entries = append(b.entries, name)
	return nil
}

func (b *builder) writeFile(src, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := b.header(name, info)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := b.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	b.entries = append(b.entries, name)
	return nil
}

func (b *builder) writeBytes(name string, data []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   b.method.id,
		Flags:    b.method.flags,
		Modified: modified,
	}
	header.SetMode(0o644)

	w, err := b.zw.CreateHeader(header)
	if err != nil {
		return ovenerrors.NewArchiveError(b.output, "write", fmt.Errorf("create entry %s: %w", name, err))
	}
	if _, err := w.Write(data); err != nil {
		return ovenerrors.NewArchiveError(b.output, "write", fmt.Errorf("write entry %s: %w", name, err))
	}
	b.entries = append(b.entries, name)
	return nil
}

// EntryName joins entry path elements with forward slashes.
func EntryName(elem ...string) string {
	return path.Join(elem...)
}
