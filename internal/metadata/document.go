package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

// Document is a descriptor as a key/value mapping. Keys the typed views do not
// know about survive a load/write cycle unchanged.
type Document map[string]any

// readDocument parses a descriptor file into its raw mapping and decodes the
// same bytes into target.
func readDocument(path string, target any) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ovenerrors.NewParseError(path, 0, err)
	}

	var doc Document
	if err := decodeJSON(data, &doc); err != nil {
		return nil, ovenerrors.NewParseError(path, errorLine(data, err), err)
	}
	if doc == nil {
		return nil, ovenerrors.NewParseError(path, 0, fmt.Errorf("descriptor must be a JSON object"))
	}
	if err := decodeJSON(data, target); err != nil {
		return nil, ovenerrors.NewParseError(path, errorLine(data, err), err)
	}

	return doc, nil
}

func decodeJSON(data []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after top-level object")
	}
	return nil
}

// errorLine maps a decoder offset to a 1-based line number.
func errorLine(data []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case Document:
		return cloneValue(map[string]any(typed))
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Lookup resolves a dotted key path with at most one level of nesting.
func (d Document) Lookup(path string) (any, bool) {
	return lookup(map[string]any(d), path)
}

// Marshal encodes the document as 2-space-indented JSON with sorted keys and a
// trailing newline.
func (d Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any(d), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write serializes the document to path.
func (d Document) Write(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
