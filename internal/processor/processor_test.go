package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pluginoven/internal/compiler"
	"github.com/alexisbeaulieu97/pluginoven/internal/config"
	"github.com/alexisbeaulieu97/pluginoven/internal/filter"
	ovenerrors "github.com/alexisbeaulieu97/pluginoven/pkg/errors"
)

func buildSource(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

// fakeCompiler writes "compiled:<display>" to the destination.
func fakeCompiler(calls *[]string) compiler.Compiler {
	return compiler.Func(func(_ context.Context, src, dst, display string, _ int) error {
		*calls = append(*calls, display)
		return os.WriteFile(dst, []byte("compiled:"+display), 0o644)
	})
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
		return nil
	}))
	sort.Strings(out)
	return out
}

var demoTree = map[string]string{
	"__init__.py":        "from . import Demo\n",
	"Demo.py":            "from UM.Extension import Extension\n",
	"lib/util.py":        "X = 1\n",
	"qml/Main.qml":       "Item {}\n",
	"plugin.json":        "{}",
	"LICENSE":            "MIT",
	"lib/LICENSE":        "vendored",
	"Thumbs.db":          "junk",
	"qml/desktop.ini":    "junk",
	"tests/test_x.py":    "assert True\n",
	".git/HEAD":          "ref",
	"stale.pyc":          "old",
	"resources/icon.svg": "<svg/>",
}

func TestProcess_SourceVariant(t *testing.T) {
	t.Parallel()

	src := buildSource(t, demoTree)
	dst := t.TempDir()

	p := New(Options{Variant: config.VariantSource, RootSkip: []string{"plugin.json", "LICENSE"}})
	report, err := p.Process(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Demo.py",
		"__init__.py",
		"lib/LICENSE",
		"lib/util.py",
		"qml/Main.qml",
		"resources/icon.svg",
	}, listTree(t, dst))
	assert.Empty(t, report.Compiled)
	assert.Empty(t, report.Removed)
	assert.Len(t, report.Copied, 6)

	info, err := os.Stat(filepath.Join(dst, "qml", "Main.qml"))
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())

	data, err := os.ReadFile(filepath.Join(dst, "Demo.py"))
	require.NoError(t, err)
	assert.Equal(t, demoTree["Demo.py"], string(data))
}

func TestProcess_BinaryVariantKeepsEntryPoint(t *testing.T) {
	t.Parallel()

	src := buildSource(t, demoTree)
	dst := t.TempDir()

	var calls []string
	p := New(Options{
		Variant:  config.VariantBinary,
		Compiler: fakeCompiler(&calls),
		RootSkip: []string{"plugin.json", "LICENSE"},
	})
	report, err := p.Process(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Demo.pyc",
		"__init__.py",
		"__init__.pyc",
		"lib/LICENSE",
		"lib/util.pyc",
		"qml/Main.qml",
		"resources/icon.svg",
	}, listTree(t, dst))
	assert.ElementsMatch(t, []string{"Demo.py", "__init__.py", "lib/util.py"}, calls)
	assert.ElementsMatch(t, []string{"Demo.py", "lib/util.py"}, report.Removed)

	info, err := os.Stat(filepath.Join(dst, "Demo.pyc"))
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())
}

func TestProcess_BinarySourceVariantKeepsEverything(t *testing.T) {
	t.Parallel()

	src := buildSource(t, map[string]string{"__init__.py": "", "mod.py": ""})
	dst := t.TempDir()

	var calls []string
	p := New(Options{Variant: config.VariantBinarySource, Compiler: fakeCompiler(&calls)})
	report, err := p.Process(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"__init__.py", "__init__.pyc", "mod.py", "mod.pyc"}, listTree(t, dst))
	assert.Empty(t, report.Removed)
	assert.Len(t, report.Compiled, 2)
}

func TestProcess_CompileFailure(t *testing.T) {
	t.Parallel()

	src := buildSource(t, map[string]string{"broken.py": "def x(:"})
	dst := t.TempDir()

	boom := errors.New("SyntaxError")
	p := New(Options{
		Variant: config.VariantBinary,
		Compiler: compiler.Func(func(context.Context, string, string, string, int) error {
			return boom
		}),
	})
	_, err := p.Process(context.Background(), src, dst)

	var compileErr *ovenerrors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "broken.py", compileErr.Path)
	assert.ErrorIs(t, err, boom)
}

func TestProcess_CompilingVariantNeedsCompiler(t *testing.T) {
	t.Parallel()

	p := New(Options{Variant: config.VariantBinary})
	_, err := p.Process(context.Background(), t.TempDir(), t.TempDir())
	require.Error(t, err)
}

func TestProcess_RespectsFilter(t *testing.T) {
	t.Parallel()

	src := buildSource(t, map[string]string{
		"__init__.py":     "",
		"docs/guide.md":   "",
		"build/stale.txt": "",
	})
	f, err := filter.New(filter.Options{
		Base:         src,
		Staging:      filepath.Join(src, "build"),
		ExcludeGlobs: []string{"docs/**"},
	})
	require.NoError(t, err)

	dst := t.TempDir()
	_, err = New(Options{Filter: f}).Process(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"__init__.py"}, listTree(t, dst))
}

func TestProcess_CancelledContext(t *testing.T) {
	t.Parallel()

	src := buildSource(t, map[string]string{"a.txt": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Process(ctx, src, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestCopyFile_ReplacesExistingMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, []byte("old content"), 0o644))

	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())
}
