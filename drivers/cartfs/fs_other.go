//go:build !n64

package cartfs

import (
	"embed"
	"io/fs"
)

// On hosts base holds the wrapped embed.FS and all accesses are forwarded to
// it. A nil base means the FS was opened with Read from an image.
type baseType = *embed.FS

func embedfs(f embed.FS) FS { return FS{base: &f} }

func (f *FS) baseOpen(name string) (fs.File, error) {
	if f.base != nil {
		return (*f.base).Open(name)
	}
	return f.romOpen(name)
}

func (f *FS) baseReadFile(name string) ([]byte, error) {
	if f.base != nil {
		return (*f.base).ReadFile(name)
	}
	return f.romReadFile(name)
}

func (f *FS) baseReadDir(name string) ([]fs.DirEntry, error) {
	if f.base != nil {
		return (*f.base).ReadDir(name)
	}
	return f.romReadDir(name)
}
