// Package cartfs serves embedded files directly from cartridge storage.
//
// The embed package works on the N64, but everything it embeds ends up in the
// binary, which the IPL3 loads into RAM in one piece. A cartfs.FS wraps an
// embed.FS and moves the file data out of the binary: the toolexec wrapper copies
// the files to a dedicated ROM section and patches the FS to read from there.
// Dead code elimination then drops the embed.FS data from the binary, and in
// the same way an unreferenced cartfs.FS never takes up ROM space. Packages
// can therefore ship large asset collections without every importer paying
// for all of them.
//
// On targets other than the N64 all calls are forwarded to the wrapped
// embed.FS, so the same code runs unmodified on the host.
//
// Because the files still go through a real //go:embed directive, the usual
// tooling keeps working: the files are validated by the compiler and show up
// in 'go list' and 'go mod vendor'.
package cartfs

import (
	"embed"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"maps"
	"math"
	"os"
	"path"
	"slices"
)

// Storage layout: entry count, table of contents, path blob length, path
// blob, then the file contents padded to Align.
const Align = 8
const alignMask = Align - 1

// tocEntry is the on-storage form of a single table of contents entry. Start
// and End index into the path blob, Offset is relative to the start of the
// data area.
type tocEntry struct {
	Start, End int64
	Size       int64
	Offset     int64
}

type FS struct {
	base baseType // must be first field, patched by the toolexec wrapper

	dev   io.ReaderAt
	files []file
}

// Embed returns a cartfs.FS serving the files of an embed.FS.
func Embed(f embed.FS) FS {
	return embedfs(f)
}

// Read opens a cartfs found at offset 0 of dev.
func Read(dev io.ReaderAt) (*FS, error) {
	r := io.NewSectionReader(dev, 0, math.MaxInt64)

	var numEntries int64
	if err := binary.Read(r, binary.BigEndian, &numEntries); err != nil {
		return nil, err
	}
	toc := make([]tocEntry, numEntries)
	if err := binary.Read(r, binary.BigEndian, toc); err != nil {
		return nil, err
	}
	var blobLen int64
	if err := binary.Read(r, binary.BigEndian, &blobLen); err != nil {
		return nil, err
	}
	blob := make([]byte, blobLen)
	if err := binary.Read(r, binary.BigEndian, blob); err != nil {
		return nil, err
	}

	dataBase, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	dataBase = (dataBase + alignMask) &^ alignMask

	files := make([]file, numEntries)
	for i, entry := range toc {
		files[i] = file{
			name:   string(blob[entry.Start:entry.End]),
			size:   entry.Size,
			offset: entry.Offset + dataBase,
		}
	}

	return &FS{dev: dev, files: files}, nil
}

// addParents returns names extended by all missing parent directories of the
// listed files. Directory names carry a trailing slash. The result is free of
// duplicates even if names already contained some of the parents.
func addParents(names []string) []string {
	for _, name := range names {
		dir := name
		for {
			dir, _ = path.Split(trimSlash(dir))
			if dir == "" {
				break
			}
			if !slices.Contains(names, dir) {
				names = append(names, dir)
			}
		}
	}
	return names
}

// Create writes a cartfs image to dev. The files map lists the contents,
// keyed by name inside the filesystem with the local path to read the data
// from as value. Parent directories are created implicitly.
//
// The expected map matches what the compiler's -embedcfg flag provides, i.e.
// pattern resolution and exclusion of hidden files already happened.
func Create(dev io.WriterAt, files map[string]string) error {
	names := addParents(slices.Collect(maps.Keys(files)))
	slices.SortFunc(names, pathCompare)

	var offset int64
	blob := make([]byte, 0)
	toc := make([]tocEntry, 0, len(names))
	for _, name := range names {
		var size int64
		if _, _, isDir := split(name); !isDir {
			info, err := os.Stat(files[name])
			if err != nil {
				return err
			}
			size = info.Size()
		}
		blob = append(blob, []byte(name)...)
		toc = append(toc, tocEntry{
			int64(len(blob) - len(name)), int64(len(blob)),
			size,
			offset,
		})
		offset += size
		offset = (offset + alignMask) &^ alignMask
	}

	w := io.NewOffsetWriter(dev, 0)
	for _, v := range []any{int64(len(toc)), toc, int64(len(blob)), blob} {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	dataBase, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	dataBase = (dataBase + alignMask) &^ alignMask

	for _, entry := range toc {
		name := string(blob[entry.Start:entry.End])
		if _, _, isDir := split(name); isDir {
			continue
		}
		r, err := os.Open(files[name])
		if err != nil {
			return err
		}
		w := io.NewOffsetWriter(dev, entry.Offset+dataBase)
		n, err := io.Copy(w, r)
		r.Close()
		if err != nil {
			return err
		}
		if n != entry.Size {
			return errors.New("filesize changed")
		}
	}

	return nil
}

// Open opens the named file for reading and returns it as an [fs.File].
//
// The returned file implements [io.Seeker] and [io.ReaderAt] when the file is
// not a directory.
func (f *FS) Open(name string) (fs.File, error) {
	return f.baseOpen(name)
}

// ReadDir reads and returns the entire named directory.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	return f.baseReadDir(name)
}

// ReadFile reads and returns the content of the named file.
func (f *FS) ReadFile(name string) ([]byte, error) {
	return f.baseReadFile(name)
}

func (f *FS) romOpen(name string) (fs.File, error) {
	file := f.lookup(name)
	if file == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if file.IsDir() {
		return &openDir{file, f.readDir(file.name), 0}, nil
	}
	r := io.NewSectionReader(f.dev, file.offset, file.size)
	return &openFile{r, file}, nil
}

func (f *FS) romReadDir(name string) ([]fs.DirEntry, error) {
	file, err := f.romOpen(name)
	if err != nil {
		return nil, err
	}
	dir, ok := file.(*openDir)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errors.New("not a directory")}
	}
	list := make([]fs.DirEntry, len(dir.files))
	for i := range list {
		list[i] = &dir.files[i]
	}
	return list, nil
}

func (f *FS) romReadFile(name string) ([]byte, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	ofile, ok := file.(*openFile)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
	}
	return io.ReadAll(ofile)
}

// readDir returns the subslice of f.files holding the direct children of the
// directory name. Relies on the sort order established by pathCompare.
func (f *FS) readDir(name string) []file {
	name = trimSlash(name)
	i, _ := slices.BinarySearchFunc(f.files, name, func(e file, s string) int {
		idir, _, _ := split(e.name)
		if idir >= s {
			return 1
		}
		return -1
	})
	j, _ := slices.BinarySearchFunc(f.files, name, func(e file, s string) int {
		jdir, _, _ := split(e.name)
		if jdir > s {
			return 1
		}
		return -1
	})

	return f.files[i:j]
}

// lookup returns the named file, or nil if it is not present.
func (f *FS) lookup(name string) *file {
	if name == "." {
		return dotFile
	}
	if f.files == nil {
		return nil
	}

	i, found := slices.BinarySearchFunc(f.files, name, func(e file, s string) int {
		return pathCompare(trimSlash(e.name), s)
	})
	if found {
		return &f.files[i]
	}

	return nil
}

// Adapted from embed/embed.go
func split(name string) (dir, elem string, isDir bool) {
	if name[len(name)-1] == '/' {
		isDir = true
		name = name[:len(name)-1]
	}
	i := len(name) - 1
	for i >= 0 && name[i] != '/' {
		i--
	}
	if i < 0 {
		return ".", name, isDir
	}
	return name[:i], name[i+1:], isDir
}

// Adapted from embed/embed.go
func trimSlash(name string) string {
	if len(name) > 0 && name[len(name)-1] == '/' {
		return name[:len(name)-1]
	}
	return name
}

// pathCompare sorts names directory first, then by element, which keeps the
// children of each directory contiguous. See embed.FS for the rationale.
func pathCompare(a, b string) int {
	adir, aelem, _ := split(a)
	bdir, belem, _ := split(b)
	if bdir == adir {
		if belem == aelem {
			return 0
		} else if belem > aelem {
			return -1
		}
	} else if bdir > adir {
		return -1
	}
	return 1
}
