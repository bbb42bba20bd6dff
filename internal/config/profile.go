package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Profile holds build defaults read from a YAML file. Unset keys stay nil so
// they never override values given on the command line.
type Profile struct {
	Source         *string      `yaml:"source"`
	DownloadDir    *string      `yaml:"download_dir"`
	StagingDir     *string      `yaml:"build"`
	ResultDir      *string      `yaml:"destination"`
	ResultFilename *string      `yaml:"filename"`
	Formats        []string     `yaml:"formats"`
	Variant        *Variant     `yaml:"variant"`
	Compression    *Compression `yaml:"compression"`
	Optimize       *int         `yaml:"optimize"`
	Exclude        []string     `yaml:"exclude"`
	TargetAPI      *int         `yaml:"target_api"`
	GitBranch      *string      `yaml:"git_branch"`
}

// LoadProfile reads a YAML build profile from disk.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ovenerrors.NewParseError(path, 0, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, ovenerrors.NewParseError(path, extractLine(err), err)
	}

	return &profile, nil
}

// Apply overlays the profile on b. Options named in explicit were set on the
// command line and keep their value.
func (p *Profile) Apply(b Build, explicit map[string]bool) Build {
	if p == nil {
		return b
	}
	out := b.Clone()

	setString := func(option string, dst *string, src *string) {
		if src != nil && !explicit[option] {
			*dst = *src
		}
	}
	setString("source", &out.Source, p.Source)
	setString("download-dir", &out.DownloadDir, p.DownloadDir)
	setString("build", &out.StagingDir, p.StagingDir)
	setString("destination", &out.ResultDir, p.ResultDir)
	setString("filename", &out.ResultFilename, p.ResultFilename)
	setString("git-branch", &out.GitBranch, p.GitBranch)

	if len(p.Formats) > 0 && !explicit["format"] {
		out.Formats = append([]string(nil), p.Formats...)
	}
	if len(p.Exclude) > 0 && !explicit["exclude"] {
		out.Exclude = append([]string(nil), p.Exclude...)
	}
	if p.Variant != nil && !explicit["variant"] {
		out.Variant = *p.Variant
	}
	if p.Compression != nil && !explicit["compression"] {
		out.Compression = *p.Compression
	}
	if p.Optimize != nil && !explicit["optimize"] {
		out.Optimize = *p.Optimize
	}
	if p.TargetAPI != nil && !explicit["target-api"] {
		out.TargetAPI = *p.TargetAPI
	}

	return out
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
