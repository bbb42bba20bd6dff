package format

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pluginoven/internal/compiler"
	"github.com/alexisbeaulieu97/pluginoven/internal/config"
)

const demoPluginJSON = `{
  "id": "demo",
  "name": "Demo",
  "version": "1.0",
  "api": 5,
  "author": "x",
  "email": "x@x",
  "i18n-catalog": "x",
  "description": "d"
}`

func packageJSON(sdk int, extra string) string {
	return `{
  "package_id": "demo",
  "package_type": "plugin",
  "display_name": "Demo",
  "description": "d",
  "package_version": "1.0",
  "sdk_version": ` + strconv.Itoa(sdk) + `,
  "website": "https://example.com",
  "tags": ["demo"],
  "author": {"author_id": "x", "display_name": "X", "email": "x@x", "website": "https://example.com"}` + extra + `
}`
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

type workspace struct {
	source  string
	staging string
	result  string
}

func newWorkspace(t *testing.T, files map[string]string) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{
		source:  filepath.Join(root, "source"),
		staging: filepath.Join(root, "build"),
		result:  filepath.Join(root, "dist"),
	}
	require.NoError(t, os.MkdirAll(ws.source, 0o755))
	writeTree(t, ws.source, files)
	return ws
}

func (ws workspace) env(variant config.Variant, compression config.Compression) Env {
	cfg := config.Defaults()
	cfg.Source = ws.source
	cfg.StagingDir = ws.staging
	cfg.ResultDir = ws.result
	cfg.DownloadDir = filepath.Join(filepath.Dir(ws.source), "download")
	cfg.Variant = variant
	cfg.Compression = compression
	return Env{
		Config:   cfg,
		Source:   ws.source,
		Compiler: fakeCompiler(),
	}
}

func fakeCompiler() compiler.Compiler {
	return compiler.Func(func(_ context.Context, _, dst, display string, _ int) error {
		return os.WriteFile(dst, []byte("bytecode:"+display), 0o644)
	})
}

// runStages drives a strategy through every stage and stops at the first failure.
func runStages(t *testing.T, s Strategy) {
	t.Helper()
	ctx := context.Background()
	require.True(t, s.Verify(ctx), "verify")
	require.NoError(t, s.Prepare(ctx), "prepare")
	require.NoError(t, s.Build(ctx), "build")
	require.NoError(t, s.Bundle(ctx), "bundle")
	require.True(t, s.Test(ctx), "test")
	require.NoError(t, s.Clean(ctx), "clean")
}
