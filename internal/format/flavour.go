package format

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/filter"
)

// Flavour names the host framework a plugin builds on.
type Flavour string

const (
	FlavourCura    Flavour = "cura"
	FlavourUranium Flavour = "uranium"
)

// Extension is the installable archive extension for the flavour.
func (f Flavour) Extension() string {
	if f == FlavourUranium {
		return ".umplugin"
	}
	return ".curaplugin"
}

var (
	importsCura    = regexp.MustCompile(`^\s*(from|import)\s+cura(\.|\s|$)`)
	importsUranium = regexp.MustCompile(`^\s*(from|import)\s+UM(\.|\s|$)`)
)

// DetectFlavour scans the Python sources under dir that f does not ignore.
// Any cura import wins; otherwise sources that import UM make it uranium.
// A tree importing neither is treated as cura.
func DetectFlavour(dir string, f *filter.Filter) (Flavour, error) {
	uranium := false
	cura := false

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel != "." && f != nil && f.IsIgnorable(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".py") {
			return nil
		}

		c, u, err := scanImports(path)
		if err != nil {
			return err
		}
		uranium = uranium || u
		if c {
			cura = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if !cura && uranium {
		return FlavourUranium, nil
	}
	return FlavourCura, nil
}

func scanImports(path string) (cura, uranium bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return false, false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case importsCura.MatchString(line):
			return true, uranium, nil
		case importsUranium.MatchString(line):
			uranium = true
		}
	}
	return false, uranium, scanner.Err()
}
