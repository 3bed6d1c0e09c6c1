package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/ldemailly/amalgamate/amalgam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	files    map[string]string // path -> content
	requests atomic.Int32
}

func (f *fakeRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	const prefix = "/repos/owner/repo/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) || r.URL.Query().Get("ref") != "v1" {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	p := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")
	if body, ok := f.files[p]; ok {
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"name":     p[strings.LastIndexByte(p, '/')+1:],
			"path":     p,
			"size":     len(body),
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(body)),
		})
		return
	}
	var listing []map[string]any
	seen := map[string]bool{}
	for fp := range f.files {
		rest, ok := strings.CutPrefix(fp, p+"/")
		if !ok {
			continue
		}
		name, _, isDir := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		typ := "file"
		if isDir {
			typ = "dir"
		}
		listing = append(listing, map[string]any{"type": typ, "name": name, "path": p + "/" + name})
	}
	if listing == nil {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(listing)
}

func newTestGitHubFS(t *testing.T, repo *fakeRepo, cacheDir string) *githubFS {
	t.Helper()
	srv := httptest.NewServer(repo)
	t.Cleanup(srv.Close)
	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	cache, err := newDiskCache(cacheDir, cacheDir != "")
	require.NoError(t, err)
	g, err := newGitHubFS(context.Background(), NewClientWrapper(client, cache), repoSpec{Owner: "owner", Repo: "repo", Ref: "v1"})
	require.NoError(t, err)
	return g
}

func TestParseRepoSpec(t *testing.T) {
	s, err := parseRepoSpec("fortio/fortio@v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, repoSpec{Owner: "fortio", Repo: "fortio", Ref: "v1.2.3"}, s)
	s, err = parseRepoSpec("a/b")
	require.NoError(t, err)
	assert.Equal(t, repoSpec{Owner: "a", Repo: "b"}, s)
	for _, bad := range []string{"", "a", "a/", "/b", "a/b/c", "a/b@"} {
		_, err = parseRepoSpec(bad)
		assert.ErrorIs(t, err, errInvalidRepo, bad)
	}
}

func TestGitHubFSAmalgamate(t *testing.T) {
	repo := &fakeRepo{files: map[string]string{
		"src/a/x.h":      "#include \"y.h\"\nint f();\n",
		"src/a/doc.md":   "docs",
		"src/a/sub/z.h":  "int z();\n",
		"src/b/y.h":      "int g();\n",
		"src/b/y.cpp":    "#include \"y.h\"\nint g(){return 1;}\n",
		"src/other/o.cc": "int o;\n",
	}}
	g := newTestGitHubFS(t, repo, "")
	files, err := (&amalgam.Collector{FS: g, Layout: amalgam.Layout{Root: "src", Modules: []string{"a", "b"}}}).Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a/x.h", "src/b/y.h"}, files.Headers)
	assert.Equal(t, []string{"src/b/y.cpp"}, files.Sources)

	a := &amalgam.Amalgamator{FS: g, Out: amalgam.Output{Name: "lib"}}
	header, source, err := a.Render(files)
	require.NoError(t, err)
	assert.Equal(t, amalgam.Banner("src/a/x.h")+"int f();\n"+amalgam.Banner("src/b/y.h")+"int g();\n", string(header))
	assert.Equal(t, "#include \"lib.h\"\n"+amalgam.Banner("src/b/y.cpp")+"int g(){return 1;}\n", string(source))

	// Rendering again is served from the in-memory file cache.
	before := repo.requests.Load()
	_, _, err = a.Render(files)
	require.NoError(t, err)
	assert.Equal(t, before, repo.requests.Load())
}

func TestGitHubFSMissingModule(t *testing.T) {
	g := newTestGitHubFS(t, &fakeRepo{files: map[string]string{"src/a/x.h": ""}}, "")
	_, err := (&amalgam.Collector{FS: g, Layout: amalgam.Layout{Root: "src", Modules: []string{"nope"}}}).Collect()
	assert.ErrorIs(t, err, amalgam.ErrDirectoryNotFound)
}

func TestGitHubFSDiskCache(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeRepo{files: map[string]string{"src/a/x.h": "int x;\n"}}
	layout := amalgam.Layout{Root: "src", Modules: []string{"a"}}

	g := newTestGitHubFS(t, repo, dir)
	files, err := (&amalgam.Collector{FS: g, Layout: layout}).Collect()
	require.NoError(t, err)
	_, err = amalgam.Digest(g, files)
	require.NoError(t, err)
	_, err = g.ReadDir("src/missing")
	require.Error(t, err)
	fetched := repo.requests.Load()
	assert.Equal(t, int32(3), fetched)

	// A fresh filesystem over the same cache directory makes no requests.
	g2 := newTestGitHubFS(t, repo, dir)
	files2, err := (&amalgam.Collector{FS: g2, Layout: layout}).Collect()
	require.NoError(t, err)
	assert.Equal(t, files, files2)
	_, err = amalgam.Digest(g2, files2)
	require.NoError(t, err)
	_, err = g2.ReadDir("src/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist, "not found is cached too")
	assert.Equal(t, fetched, repo.requests.Load())
}

func TestGitHubFSOpenDirectory(t *testing.T) {
	g := newTestGitHubFS(t, &fakeRepo{files: map[string]string{"src/a/x.h": ""}}, "")
	_, err := g.Open("src/a")
	assert.Error(t, err)
	_, err = g.ReadDir("src/a/x.h")
	assert.Error(t, err)
}
