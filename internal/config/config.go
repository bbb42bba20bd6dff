package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Variant selects which form of the Python sources ends up in the archive.
type Variant string

const (
	VariantSource       Variant = "source"
	VariantBinary       Variant = "binary"
	VariantBinarySource Variant = "binary+source"
)

// Compiles reports whether bytecode must be produced.
func (v Variant) Compiles() bool {
	return v == VariantBinary || v == VariantBinarySource
}

// KeepsSources reports whether compiled sources stay in the archive.
func (v Variant) KeepsSources() bool {
	return v != VariantBinary
}

// Compression names the per-entry zip compression method.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionZlib  Compression = "zlib"
	CompressionBzip2 Compression = "bzip2"
	CompressionLZMA  Compression = "lzma"
)

// FormatAll expands to every registered format.
const FormatAll = "all"

// Build is the resolved build configuration. It is passed by value and never
// mutated once Validate has accepted it.
type Build struct {
	Source         string      `yaml:"source" validate:"required,path"`
	DownloadDir    string      `yaml:"download_dir" validate:"required,path"`
	StagingDir     string      `yaml:"build" validate:"required,path"`
	ResultDir      string      `yaml:"destination" validate:"required,path"`
	ResultFilename string      `yaml:"filename" validate:"omitempty,excludesall=/\\"`
	Formats        []string    `yaml:"formats" validate:"required,min=1,dive,required"`
	Variant        Variant     `yaml:"variant" validate:"required,oneof=source binary binary+source"`
	Compression    Compression `yaml:"compression" validate:"required,oneof=none zlib bzip2 lzma"`
	Optimize       int         `yaml:"optimize" validate:"min=0,max=2"`
	Exclude        []string    `yaml:"exclude" validate:"omitempty,dive,glob"`
	TargetAPI      int         `yaml:"target_api" validate:"min=1"`
	GitBranch      string      `yaml:"git_branch"`
	ToolDir        string      `yaml:"-"`
}

// Defaults mirrors the defaults of the command-line interface.
func Defaults() Build {
	return Build{
		Source:      "source",
		DownloadDir: "download",
		StagingDir:  "build",
		ResultDir:   ".",
		Formats:     []string{FormatAll},
		Variant:     VariantBinarySource,
		Compression: CompressionLZMA,
		Optimize:    2,
		TargetAPI:   5,
	}
}

// Validate checks option values and returns a ConfigError for the first bad one.
func (b Build) Validate() error {
	if err := validatorInstance().Struct(b); err != nil {
		return convertValidationError(err)
	}
	if b.StagingDir != "" && b.ResultDir != "" && sameDir(b.StagingDir, b.ResultDir) {
		return ovenerrors.NewConfigError("build", "staging directory must differ from the destination directory", nil)
	}
	if b.ResultFilename != "" && b.multipleFormats() {
		return ovenerrors.NewConfigError("filename", "a fixed file name needs exactly one format", nil)
	}
	return nil
}

// CheckStaging rejects staging layouts whose cleanup would delete source
// files: the staging directory, or the per-format directory of any tag, must
// not be the source directory or one of its ancestors.
func (b Build) CheckStaging(source string, tags []string) error {
	dirs := []string{b.StagingDir}
	for _, tag := range tags {
		dirs = append(dirs, filepath.Join(b.StagingDir, tag))
	}
	for _, dir := range dirs {
		if Contains(dir, source) {
			return ovenerrors.NewConfigError("build", fmt.Sprintf("staging directory %s would remove the source %s", dir, source), nil)
		}
	}
	return nil
}

// Contains reports whether child is dir itself or lies below it.
func Contains(dir, child string) bool {
	if dir == "" || child == "" {
		return false
	}
	absDir, errDir := filepath.Abs(dir)
	absChild, errChild := filepath.Abs(child)
	if errDir != nil || errChild != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// multipleFormats reports whether the format list can select more than one tag.
func (b Build) multipleFormats() bool {
	for _, tag := range b.Formats {
		if strings.EqualFold(strings.TrimSpace(tag), FormatAll) {
			return true
		}
	}
	return len(b.ExpandFormats(nil)) > 1
}

// Clone returns a copy that shares no slices with b.
func (b Build) Clone() Build {
	clone := b
	clone.Formats = append([]string(nil), b.Formats...)
	clone.Exclude = append([]string(nil), b.Exclude...)
	return clone
}

// WithSource returns a copy of b pointing at a resolved local source directory.
func (b Build) WithSource(dir string) Build {
	clone := b.Clone()
	clone.Source = dir
	return clone
}

// Absolute resolves every directory option to an absolute, cleaned path.
func (b Build) Absolute() (Build, error) {
	clone := b.Clone()
	for _, target := range []struct {
		option string
		value  *string
	}{
		{"build", &clone.StagingDir},
		{"destination", &clone.ResultDir},
		{"download-dir", &clone.DownloadDir},
	} {
		abs, err := filepath.Abs(*target.value)
		if err != nil {
			return Build{}, ovenerrors.NewConfigError(target.option, "cannot resolve path", err)
		}
		*target.value = abs
	}
	return clone, nil
}

// ExpandFormats replaces FormatAll with the supplied ordered tag list and drops duplicates.
func (b Build) ExpandFormats(all []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range b.Formats {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag == FormatAll {
			for _, t := range all {
				add(t)
			}
			continue
		}
		add(tag)
	}
	return out
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
