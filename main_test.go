package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ldemailly/amalgamate/amalgam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMain parses args into the command line flags and runs Main. Mode flags
// are reset first since flag.CommandLine outlives a single test.
func runMain(t *testing.T, args ...string) int {
	t.Helper()
	for _, name := range []string{"check", "list", "graph"} {
		require.NoError(t, flag.CommandLine.Set(name, "false"))
	}
	require.NoError(t, flag.CommandLine.Parse(args))
	return Main()
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, body := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
}

func TestMainWriteThenCheck(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out", "lib")
	writeFiles(t, src, map[string]string{
		"utils/utils.h":   "#pragma once\nint twice(int);\n",
		"utils/utils.cpp": "#include \"utils.h\"\nint twice(int x) { return 2 * x; }\n",
		"lexer/lexer.h":   "#pragma once\n#include \"../utils/utils.h\"\n#include <string>\nstd::string lex();\n",
		"lexer/notes.txt": "ignored\n",
	})
	base := []string{"-root", src, "-out", out, "-name", "helpy", "-ext", "cpp", "-classify", "substring", "-atomic=true"}
	args := func(extra ...string) []string {
		a := append([]string{}, base...)
		a = append(a, extra...)
		return append(a, "utils", "lexer")
	}

	require.Equal(t, 1, runMain(t, args("-check")...), "nothing written yet")
	_, err := os.Stat(out)
	assert.ErrorIs(t, err, os.ErrNotExist, "check writes nothing")

	require.Equal(t, 0, runMain(t, args()...))
	header, err := os.ReadFile(filepath.Join(out, "helpy.h"))
	require.NoError(t, err)
	assert.Equal(t,
		amalgam.Banner(src+"/utils/utils.h")+"#pragma once\nint twice(int);\n"+
			amalgam.Banner(src+"/lexer/lexer.h")+"#pragma once\n#include <string>\nstd::string lex();\n",
		string(header))
	source, err := os.ReadFile(filepath.Join(out, "helpy.cpp"))
	require.NoError(t, err)
	assert.Equal(t,
		"#include \"helpy.h\"\n"+amalgam.Banner(src+"/utils/utils.cpp")+"int twice(int x) { return 2 * x; }\n",
		string(source))

	assert.Equal(t, 0, runMain(t, args("-check")...), "fresh output is up to date")

	writeFiles(t, src, map[string]string{"utils/utils.h": "#pragma once\nint twice(int);\nint thrice(int);\n"})
	assert.Equal(t, 1, runMain(t, args("-check")...), "edited input makes output stale")
	after, err := os.ReadFile(filepath.Join(out, "helpy.h"))
	require.NoError(t, err)
	assert.Equal(t, header, after, "check leaves the output alone")

	require.Equal(t, 0, runMain(t, args()...))
	assert.Equal(t, 0, runMain(t, args("-check")...))
}

func TestMainMissingModuleWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "lib")
	writeFiles(t, src, map[string]string{"utils/utils.h": "int u;\n"})
	assert.Equal(t, 1, runMain(t, "-root", src, "-out", out, "-name", "lib", "-atomic=true", "utils", "nope"))
	_, err := os.Stat(out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMainInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, 1, runMain(t, "-root", dir, "-out", filepath.Join(dir, "lib"), "-name", "a/b", "m"))
	_, err := os.Stat(filepath.Join(dir, "lib"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "amalgamate.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("modules = [\"a\", \"b\"]\nname = \"fromfile\"\nsource_ext = \"cc\"\nout_dir = \"fileout\"\n"), 0o644))
	t.Setenv("AMALGAMATE_NAME", "fromenv")
	t.Setenv("AMALGAMATE_OUT_DIR", "envout")

	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	fset.String("config", "", "")
	fset.String("name", defaultName, "")
	fset.String("out", defaultOutDir, "")
	require.NoError(t, fset.Parse([]string{"-config", cfgFile, "-name", "fromflag", "c"}))

	cfg, err := buildConfig(fset)
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.Name, "flag beats env and file")
	assert.Equal(t, "envout", cfg.OutDir, "env beats file")
	assert.Equal(t, "cc", cfg.SourceExt, "file beats default")
	assert.Equal(t, defaultRoot, cfg.Root)
	assert.Equal(t, []string{"c"}, cfg.Modules, "arguments replace the file's modules")

	fsys, err := sourceFS(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, amalgam.OS{}, fsys)
}
