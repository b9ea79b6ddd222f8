//go:build linux || darwin

package pakfs

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"syscall"

	"github.com/nkraut/n64/drivers/controller/pakfs"
	"rsc.io/rsc/fuse"
)

// FS serves a pakfs image as a fuse filesystem. It doubles as the root dir
// node, since pakfs has no subdirectories.
type FS struct {
	pakfs *pakfs.FS
}

func (p *FS) Root() (fuse.Node, fuse.Error) {
	return p, nil
}

func (p *FS) Attr() fuse.Attr {
	stat, err := p.pakfs.Root().Stat()
	if err != nil {
		log.Println("stat:", err)
		return fuse.Attr{}
	}
	return fuse.Attr{
		Mode:  stat.Mode(),
		Mtime: stat.ModTime(),
	}
}

func (p *FS) Lookup(name string, intr fuse.Intr) (fuse.Node, fuse.Error) {
	f, err := p.pakfs.Open(name)
	if err != nil {
		return nil, errno(err)
	}
	pakfile, ok := f.(*pakfs.File)
	if !ok {
		return p, nil // must be root dir
	}
	return &node{pakfile, p.pakfs}, nil
}

func (p *FS) ReadDir(intr fuse.Intr) ([]fuse.Dirent, fuse.Error) {
	entries := p.pakfs.ReadDirRoot()
	fuseEntries := make([]fuse.Dirent, len(entries))
	for i, v := range entries {
		fuseEntries[i] = fuse.Dirent{Name: v.Name()}
	}
	return fuseEntries, nil
}

func (p *FS) Create(req *fuse.CreateRequest, res *fuse.CreateResponse, intr fuse.Intr) (fuse.Node, fuse.Handle, fuse.Error) {
	f, err := p.pakfs.Create(req.Name)
	if err != nil {
		return nil, nil, errno(err)
	}

	file := &node{f, p.pakfs}
	return file, file, nil
}

func (p *FS) Remove(req *fuse.RemoveRequest, intr fuse.Intr) fuse.Error {
	if err := p.pakfs.Remove(req.Name); err != nil {
		return errno(err)
	}
	return nil
}

func (p *FS) Rename(req *fuse.RenameRequest, newDir fuse.Node, intr fuse.Intr) fuse.Error {
	if err := p.pakfs.Rename(req.OldName, req.NewName); err != nil {
		return errno(err)
	}
	return nil
}

// node implements both the Node and the Handle for a single pakfs note.
type node struct {
	*pakfs.File

	pakfs *pakfs.FS
}

func (p *node) Attr() fuse.Attr {
	return fuse.Attr{
		Mode:  p.Mode(),
		Mtime: p.ModTime(),
		Size:  uint64(p.Size()),
	}
}

func (p *node) ReadAll(intr fuse.Intr) ([]byte, fuse.Error) {
	b := make([]byte, p.Size())
	_, err := p.ReadAt(b, 0)
	if err != io.EOF && err != nil {
		return nil, errno(err)
	}
	return b, nil
}

// WriteAll truncates the file to the final size before writing. Write is left
// unimplemented, appending via partial writes gives surprising results since
// filesizes are always rounded up to the next page boundary.
func (p *node) WriteAll(data []byte, intr fuse.Intr) fuse.Error {
	err := p.pakfs.Truncate(p.File.Name(), int64(len(data)))
	if err != nil {
		return errno(err)
	}

	if _, err := p.WriteAt(data, 0); err != nil {
		return errno(err)
	}
	return nil
}

func (p *node) Fsync(req *fuse.FsyncRequest, intr fuse.Intr) fuse.Error {
	return nil
}

// errno maps pakfs and io/fs errors to their closest unix counterpart.
func errno(err error) fuse.Error {
	for _, m := range []struct {
		err   error
		errno syscall.Errno
	}{
		{pakfs.ErrNoSpace, syscall.ENOSPC},
		{pakfs.ErrReadOnly, syscall.EROFS},
		{pakfs.ErrIsDir, syscall.EISDIR},
		{pakfs.ErrNameTooLong, syscall.ENAMETOOLONG},
		{fs.ErrInvalid, syscall.EINVAL},
		{fs.ErrExist, syscall.EEXIST},
		{fs.ErrNotExist, syscall.ENOENT},
	} {
		if errors.Is(err, m.err) {
			return fuse.Errno(m.errno)
		}
	}
	return fuse.EIO
}
