package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

func stage(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func TestBuild_PluginConvention(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{
		"LICENSE":      "MIT",
		"plugin.json":  `{"id":"demo"}`,
		"__init__.py":  "",
		"qml/Main.qml": "Item {}",
	})
	out := filepath.Join(t.TempDir(), "dist", "demo-1.0.api-5.curaplugin")

	res, err := Build(staging, out, Options{
		Compression: config.CompressionZlib,
		Convention:  ConventionPlugin,
		RootName:    "demo",
	})
	require.NoError(t, err)
	assert.Equal(t, out, res.Path)

	listing, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"demo/",
		"demo/LICENSE",
		"demo/__init__.py",
		"demo/plugin.json",
		"demo/qml/Main.qml",
	}, listing.Names())
	assert.Equal(t, res.Entries, listing.Names())

	root := listing.Entries[0]
	assert.True(t, root.IsDir())
	assert.Equal(t, zip.Store, root.Method)
	assert.Equal(t, uint64(0), root.Size)

	license, ok := listing.Find("demo/LICENSE")
	require.True(t, ok)
	assert.Equal(t, zip.Deflate, license.Method)
	assert.Equal(t, os.FileMode(0o600), license.Mode.Perm())

	data, err := ReadEntry(out, "demo/plugin.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"demo"}`, string(data))
}

func TestBuild_PackageConventionWithPrologue(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{
		"package.json":                   `{"package_id":"demo"}`,
		"files/plugins/demo/plugin.json": `{"id":"demo"}`,
		"files/plugins/demo/LICENSE":     "MIT",
	})
	out := filepath.Join(t.TempDir(), "demo-1.0.sdk-5.curapackage")

	_, err := Build(staging, out, Options{
		Compression: config.CompressionNone,
		Convention:  ConventionPackage,
		Prologue:    true,
	})
	require.NoError(t, err)

	listing, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ContentTypesEntry,
		RootRelsEntry,
		PackageRelsEntry,
		"files/plugins/demo/LICENSE",
		"files/plugins/demo/plugin.json",
		"package.json",
	}, listing.Names())

	data, err := ReadEntry(out, ContentTypesEntry)
	require.NoError(t, err)
	assert.Equal(t, ContentTypesXML, string(data))

	rels, err := ReadEntry(out, RootRelsEntry)
	require.NoError(t, err)
	assert.Contains(t, string(rels), `Target="/package.json"`)

	pkgRels, err := ReadEntry(out, PackageRelsEntry)
	require.NoError(t, err)
	assert.Contains(t, string(pkgRels), `Target="/files/plugins"`)

	for _, e := range listing.Entries {
		assert.Equal(t, zip.Store, e.Method, e.Name)
	}
}

func TestBuild_CompressionMethodsRoundTrip(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 0, 64*1024)
	for i := 0; len(payload) < cap(payload); i++ {
		payload = append(payload, "plugin payload line\n"...)
	}

	tests := []struct {
		compression config.Compression
		method      uint16
		flags       uint16
	}{
		{config.CompressionNone, zip.Store, 0},
		{config.CompressionZlib, zip.Deflate, 0},
		{config.CompressionBzip2, MethodBzip2, 0},
		{config.CompressionLZMA, MethodLZMA, flagLZMAEOS},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.compression), func(t *testing.T) {
			t.Parallel()

			staging := stage(t, map[string]string{
				"big.txt":   string(payload),
				"empty.txt": "",
			})
			out := filepath.Join(t.TempDir(), "out.zip")

			_, err := Build(staging, out, Options{Compression: tt.compression, Convention: ConventionPackage})
			require.NoError(t, err)

			listing, err := Inspect(out)
			require.NoError(t, err)
			entry, ok := listing.Find("big.txt")
			require.True(t, ok)
			assert.Equal(t, tt.method, entry.Method)
			assert.Equal(t, tt.flags, entry.Flags&flagLZMAEOS)
			assert.Equal(t, uint64(len(payload)), entry.Size)

			data, err := ReadEntry(out, "big.txt")
			require.NoError(t, err)
			assert.Equal(t, payload, data)

			empty, err := ReadEntry(out, "empty.txt")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestBuild_LZMAZipHeader(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{"a.txt": "hello hello hello"})
	out := filepath.Join(t.TempDir(), "out.zip")

	_, err := Build(staging, out, Options{Compression: config.CompressionLZMA, Convention: ConventionPackage})
	require.NoError(t, err)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)

	raw, err := r.File[0].OpenRaw()
	require.NoError(t, err)
	prefix := make([]byte, 9)
	_, err = raw.Read(prefix)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 20, 5, 0}, prefix[:4])
}

func TestBuild_ReplacesExistingOutput(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{"a.txt": "a"})
	out := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, os.WriteFile(out, []byte("not a zip"), 0o600))

	_, err := Build(staging, out, Options{Convention: ConventionPackage})
	require.NoError(t, err)

	listing, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, listing.Names())
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{"a.txt": "a"})

	t.Run("unsupported compression", func(t *testing.T) {
		_, err := Build(staging, filepath.Join(t.TempDir(), "x.zip"), Options{Compression: "zstd"})
		var archiveErr *ovenerrors.ArchiveError
		require.ErrorAs(t, err, &archiveErr)
		assert.Equal(t, "compress", archiveErr.Op)
	})

	t.Run("plugin convention without root", func(t *testing.T) {
		_, err := Build(staging, filepath.Join(t.TempDir(), "x.zip"), Options{Convention: ConventionPlugin})
		var archiveErr *ovenerrors.ArchiveError
		require.ErrorAs(t, err, &archiveErr)
	})

	t.Run("missing staging directory", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "x.zip")
		_, err := Build(filepath.Join(staging, "missing"), out, Options{Convention: ConventionPackage})
		var archiveErr *ovenerrors.ArchiveError
		require.ErrorAs(t, err, &archiveErr)
		assert.NoFileExists(t, out)
	})

	t.Run("output is a directory", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(out, "keep"), nil, 0o600))
		_, err := Build(staging, out, Options{Convention: ConventionPackage})
		var archiveErr *ovenerrors.ArchiveError
		require.ErrorAs(t, err, &archiveErr)
		assert.Equal(t, "remove", archiveErr.Op)
	})
}

func TestInspect_NotAnArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := Inspect(path)
	var archiveErr *ovenerrors.ArchiveError
	require.ErrorAs(t, err, &archiveErr)

	_, err = ReadEntry(path, "x")
	require.ErrorAs(t, err, &archiveErr)
}

func TestReadEntry_Missing(t *testing.T) {
	t.Parallel()

	staging := stage(t, map[string]string{"a.txt": "a"})
	out := filepath.Join(t.TempDir(), "out.zip")
	_, err := Build(staging, out, Options{Convention: ConventionPackage})
	require.NoError(t, err)

	_, err = ReadEntry(out, "b.txt")
	require.Error(t, err)
}

func TestPrologueEntriesAndConvention(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{ContentTypesEntry, RootRelsEntry, PackageRelsEntry}, PrologueEntries())
	assert.Equal(t, "plugin", ConventionPlugin.String())
	assert.Equal(t, "package", ConventionPackage.String())
	assert.Equal(t, "files/plugins/demo/plugin.json", EntryName("files", "plugins", "demo", "plugin.json"))
}
