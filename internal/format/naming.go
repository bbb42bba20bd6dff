package format

import (
	"fmt"
	"strings"
)

const (
	packageExtension = ".curapackage"
	sourceExtension  = ".zip"
)

// PluginFilename is "<id>-<version>.api-<api><ext>".
func PluginFilename(id, version string, api int, ext string) string {
	return fmt.Sprintf("%s-%s.api-%d%s", id, version, api, normalizeExt(ext))
}

// PackageFilename is "<package_id>-<package_version>.sdk-<N>.curapackage".
func PackageFilename(id, version string, generation int) string {
	return fmt.Sprintf("%s-%s.sdk-%d%s", id, version, generation, packageExtension)
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
