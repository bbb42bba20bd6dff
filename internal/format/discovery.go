package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/pluginoven/internal/metadata"
	"github.com/alexisbeaulieu97/pluginoven/internal/processor"
)

// PayloadCandidates lists where the plugin module may live below root, most
// specific first. Without a package descriptor only root is a candidate.
func PayloadCandidates(root string, pkg *metadata.Package) []string {
	var candidates []string
	if pkg != nil && pkg.PackageID != "" {
		if pkg.PackageType != "" {
			candidates = append(candidates, filepath.Join(root, pkg.PackageType, pkg.PackageID))
		}
		candidates = append(candidates, filepath.Join(root, pkg.PackageID))
	}
	return append(candidates, root)
}

// DiscoverPayload returns the first candidate holding the module entry point.
func DiscoverPayload(root string, pkg *metadata.Package) (string, error) {
	candidates := PayloadCandidates(root, pkg)
	for _, dir := range candidates {
		info, err := os.Stat(filepath.Join(dir, processor.EntryPoint))
		if err == nil && !info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no %s found in %s", processor.EntryPoint, strings.Join(candidates, ", "))
}

// LicenseNames are the recognised license file names, in lookup order.
var LicenseNames = []string{"LICENSE", "LICENSE.txt", "LICENSE.md", "LICENCE", "COPYING"}

// FindLicense searches dirs in order for a license file. Repeated directories
// are searched once.
func FindLicense(dirs ...string) (string, bool) {
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		clean := filepath.Clean(dir)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}

		for _, name := range LicenseNames {
			candidate := filepath.Join(clean, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
	}
	return "", false
}
