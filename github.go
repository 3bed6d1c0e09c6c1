package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/google/go-github/v62/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
)

// repoSpec is the parsed form of -github owner/repo[@ref].
type repoSpec struct {
	Owner, Repo, Ref string
}

func parseRepoSpec(s string) (repoSpec, error) {
	var spec repoSpec
	rest := s
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		spec.Ref = rest[i+1:]
		rest = rest[:i]
		if spec.Ref == "" {
			return spec, fmtRepoErr(s)
		}
	}
	owner, repo, ok := strings.Cut(rest, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return spec, fmtRepoErr(s)
	}
	spec.Owner, spec.Repo = owner, repo
	return spec, nil
}

func fmtRepoErr(s string) error {
	return fmt.Errorf("invalid -github value %q, want owner/repo[@ref]: %w", s, errInvalidRepo)
}

var errInvalidRepo = errors.New("invalid repository")

// isNotFoundError checks if an error is a GitHub API 404 Not Found error.
func isNotFoundError(err error) bool {
	var ge *github.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		// 403 is what private repos look like without a token.
		return ge.Response.StatusCode == http.StatusNotFound || ge.Response.StatusCode == http.StatusForbidden
	}
	return false
}

// newGitHubClient authenticates with GITHUB_TOKEN when it is set.
func newGitHubClient(ctx context.Context) *github.Client {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		log.Warnf("GITHUB_TOKEN environment variable not set. Using unauthenticated access (may hit rate limits).")
		return github.NewClient(http.DefaultClient)
	}
	log.Infof("Using authenticated GitHub API access.")
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// ClientWrapper puts the disk cache in front of the contents API.
type ClientWrapper struct {
	client *github.Client
	cache  *diskCache
}

func NewClientWrapper(client *github.Client, cache *diskCache) *ClientWrapper {
	return &ClientWrapper{client: client, cache: cache}
}

// getContents returns either a file or a directory listing. Not found is
// cached and returned as an error wrapping fs.ErrNotExist.
func (cw *ClientWrapper) getContents(ctx context.Context, spec repoSpec, path string) (cachedContent, error) {
	keyParts := []string{"GetContents", spec.Owner, spec.Repo, path, spec.Ref}
	cacheKey := cw.cache.key(keyParts...)
	var cached cachedContent
	hit, readErr := cw.cache.read(cacheKey, &cached)
	if readErr != nil {
		// Not fatal, proceed as a miss.
		log.Errf("Error reading cache for %v: %v", keyParts, readErr)
	}
	if hit {
		log.LogVf("Cache hit for %s/%s path=%s ref=%s found=%v", spec.Owner, spec.Repo, path, spec.Ref, cached.Found)
		if !cached.Found {
			return cached, notFound(path)
		}
		return cached, nil
	}

	log.Infof("Fetching %s/%s path=%s ref=%s", spec.Owner, spec.Repo, path, spec.Ref)
	var opt *github.RepositoryContentGetOptions
	if spec.Ref != "" {
		opt = &github.RepositoryContentGetOptions{Ref: spec.Ref}
	}
	file, dir, _, apiErr := cw.client.Repositories.GetContents(ctx, spec.Owner, spec.Repo, path, opt)
	if apiErr != nil {
		if !isNotFoundError(apiErr) {
			return cachedContent{}, apiErr
		}
		cached = cachedContent{Found: false}
	} else {
		cached = cachedContent{Found: true, File: file, Dir: dir}
	}
	if err := cw.cache.write(cacheKey, cached); err != nil {
		log.Errf("Error writing cache for %v: %v", keyParts, err)
	}
	if !cached.Found {
		return cached, notFound(path)
	}
	return cached, nil
}

func notFound(path string) error {
	return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}

// githubFS reads module directories and files from one repository at one
// ref. File contents are kept in memory since a run reads each file more
// than once (amalgamation, include graph, digest).
type githubFS struct {
	ctx   context.Context
	cw    *ClientWrapper
	spec  repoSpec
	files *lru.Cache[string, string]
}

const githubFileCacheSize = 512

func newGitHubFS(ctx context.Context, cw *ClientWrapper, spec repoSpec) (*githubFS, error) {
	files, err := lru.New[string, string](githubFileCacheSize)
	if err != nil {
		return nil, err
	}
	return &githubFS{ctx: ctx, cw: cw, spec: spec, files: files}, nil
}

func (g *githubFS) ReadDir(name string) ([]fs.DirEntry, error) {
	c, err := g.cw.getContents(g.ctx, g.spec, name)
	if err != nil {
		return nil, err
	}
	if c.File != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}
	entries := make([]fs.DirEntry, 0, len(c.Dir))
	for _, rc := range c.Dir {
		entries = append(entries, fs.FileInfoToDirEntry(contentInfo{rc}))
	}
	return entries, nil
}

func (g *githubFS) Open(name string) (io.ReadCloser, error) {
	if body, ok := g.files.Get(name); ok {
		return io.NopCloser(strings.NewReader(body)), nil
	}
	c, err := g.cw.getContents(g.ctx, g.spec, name)
	if err != nil {
		return nil, err
	}
	if c.File == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
	}
	body, err := c.File.GetContent()
	if err != nil {
		return nil, &fs.PathError{Op: "decode", Path: name, Err: err}
	}
	g.files.Add(name, body)
	return io.NopCloser(strings.NewReader(body)), nil
}

// contentInfo exposes a directory listing entry as an fs.FileInfo.
type contentInfo struct {
	rc *github.RepositoryContent
}

func (i contentInfo) Name() string { return i.rc.GetName() }
func (i contentInfo) Size() int64  { return int64(i.rc.GetSize()) }
func (i contentInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (i contentInfo) ModTime() time.Time { return time.Time{} }
func (i contentInfo) IsDir() bool        { return i.rc.GetType() == "dir" }
func (i contentInfo) Sys() any           { return i.rc }
