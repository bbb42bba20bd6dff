package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	return root
}

func TestIsIgnorable(t *testing.T) {
	t.Parallel()

	root := buildTree(t,
		"__init__.py",
		"plugin.json",
		"qml/Main.qml",
		"qml/Main.qmlc",
		".git/config",
		"lib/.hidden/x.py",
		"tests/test_demo.py",
		"lib/Test/helper.py",
		"test.py",
		"cache/mod.pyc",
		"docs/manual.chm",
		"docs/notes/readme.md",
		"build/package/plugin.json",
		"build-tools/run.sh",
		".oven/tool.py",
		"out/demo.curaplugin",
	)

	f, err := New(Options{
		Base:          root,
		AlwaysExclude: []string{filepath.Join(root, ".oven"), "out"},
		Staging:       filepath.Join(root, "build", "package"),
		ExcludeGlobs:  []string{"docs/notes/**"},
	})
	require.NoError(t, err)

	tests := []struct {
		path   string
		ignore bool
	}{
		{"__init__.py", false},
		{"plugin.json", false},
		{"qml/Main.qml", false},
		{"qml/Main.qmlc", true},
		{".git/config", true},
		{"lib/.hidden/x.py", true},
		{"tests/test_demo.py", true},
		{"lib/Test/helper.py", true},
		{"test.py", false},
		{"cache/mod.pyc", true},
		{"docs/manual.chm", true},
		{"docs/notes/readme.md", true},
		{"build", true},
		{"build/package/plugin.json", true},
		{"build-tools/run.sh", false},
		{"out/demo.curaplugin", true},
		{".", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ignore, f.IsIgnorable(tt.path), tt.path)
	}
}

func TestIsIgnorable_TestNameRequiresDirectory(t *testing.T) {
	t.Parallel()

	root := buildTree(t, "test", "sub/tests/data.txt")
	f, err := New(Options{Base: root})
	require.NoError(t, err)

	assert.False(t, f.IsIgnorable("test"), "a plain file named test is shipped")
	assert.True(t, f.IsIgnorable("sub/tests/data.txt"))
}

func TestIsIgnorable_ExtensionRequiresFile(t *testing.T) {
	t.Parallel()

	root := buildTree(t, "assets.jsc/app.js")
	f, err := New(Options{Base: root})
	require.NoError(t, err)

	assert.False(t, f.IsIgnorable("assets.jsc/app.js"))
}

func TestIsIgnorable_AncestorClosure(t *testing.T) {
	t.Parallel()

	root := buildTree(t,
		"tests/a/b/c.py",
		".cache/x/y.txt",
		"vendor/pkg/mod.go",
	)
	f, err := New(Options{Base: root, ExcludeGlobs: []string{"vendor"}})
	require.NoError(t, err)

	for _, ancestor := range []string{"tests", ".cache", "vendor"} {
		require.True(t, f.IsIgnorable(ancestor), ancestor)
	}
	for _, descendant := range []string{"tests/a", "tests/a/b/c.py", ".cache/x/y.txt", "vendor/pkg/mod.go"} {
		assert.True(t, f.IsIgnorable(descendant), descendant)
	}
}

func TestIsIgnorable_Idempotent(t *testing.T) {
	t.Parallel()

	root := buildTree(t, "tests/a.py", "src/b.py")
	f, err := New(Options{Base: root})
	require.NoError(t, err)

	for _, p := range []string{"tests/a.py", "src/b.py"} {
		first := f.IsIgnorable(p)
		assert.Equal(t, first, f.IsIgnorable(p), p)
	}
}

func TestIsIgnorable_StagingOutsideBase(t *testing.T) {
	t.Parallel()

	root := buildTree(t, "build/x.py")
	f, err := New(Options{Base: root, Staging: filepath.Join(t.TempDir(), "build")})
	require.NoError(t, err)

	assert.False(t, f.IsIgnorable("build/x.py"))
}

func TestNew_InvalidGlob(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Base: t.TempDir(), ExcludeGlobs: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestNew_CustomExtensions(t *testing.T) {
	t.Parallel()

	root := buildTree(t, "a.pyc", "b.log")
	f, err := New(Options{Base: root, ExcludedExtensions: []string{".LOG"}})
	require.NoError(t, err)

	assert.False(t, f.IsIgnorable("a.pyc"))
	assert.True(t, f.IsIgnorable("b.log"))
	assert.Equal(t, root, f.Base())
}
