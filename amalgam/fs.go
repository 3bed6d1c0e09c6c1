package amalgam

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FS is the read side the Collector and Amalgamator need. Names are
// slash separated, as built by JoinPath.
type FS interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Open(name string) (io.ReadCloser, error)
}

// OS reads from the local disk.
type OS struct{}

func (OS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(filepath.FromSlash(name))
}

func (OS) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.FromSlash(name))
}

// JoinPath builds the input path recorded in banners: root/module/name
// with forward slashes.
func JoinPath(elem ...string) string {
	return path.Join(elem...)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IOFS adapts an io/fs.FS (embed.FS, fstest.MapFS, os.DirFS...).
type IOFS struct {
	Root fs.FS
}

func (f IOFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(f.Root, name)
}

func (f IOFS) Open(name string) (io.ReadCloser, error) {
	return f.Root.Open(name)
}
