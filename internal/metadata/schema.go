package metadata

import (
	"strings"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Schema lists the dotted key paths a descriptor must contain, in reporting order.
type Schema []string

// PluginSchema is the required key set of plugin.json.
var PluginSchema = Schema{"name", "id", "i18n-catalog", "author", "email", "version", "description"}

var packageBaseSchema = Schema{
	"package_id",
	"package_type",
	"display_name",
	"description",
	"package_version",
	"sdk_version",
	"website",
	"author.author_id",
	"author.display_name",
	"author.email",
	"author.website",
}

// SemverGeneration is the first SDK generation that carries sdk_version_semver
// and no longer ships the legacy tags key.
const SemverGeneration = 6

// PackageSchema returns the package.json key set for an SDK generation.
func PackageSchema(generation int) Schema {
	schema := append(Schema(nil), packageBaseSchema...)
	if generation >= SemverGeneration {
		return append(schema, "sdk_version_semver")
	}
	return append(schema, "tags")
}

// ValidateRequired reports the first schema path missing from data.
func ValidateRequired(data map[string]any, schema Schema) error {
	for _, path := range schema {
		if _, ok := lookup(data, path); !ok {
			return ovenerrors.NewValidationError(path, "missing required field", nil)
		}
	}
	return nil
}

// MissingFields lists every schema path absent from data.
func MissingFields(data map[string]any, schema Schema) []string {
	var missing []string
	for _, path := range schema {
		if _, ok := lookup(data, path); !ok {
			missing = append(missing, path)
		}
	}
	return missing
}

func lookup(data map[string]any, path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	value, ok := data[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return value, true
	}

	var child map[string]any
	switch typed := value.(type) {
	case map[string]any:
		child = typed
	case Document:
		child = typed
	default:
		return nil, false
	}
	value, ok = child[rest]
	return value, ok
}
