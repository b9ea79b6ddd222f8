package pakfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

const (
	inodeLast = 1
	inodeFree = 3
)

// File is an open game note. It implements [fs.File] and [fs.FileInfo] as
// well as [io.ReaderAt] and [io.WriterAt].
type File struct {
	io.Reader

	fs   *FS
	note *note
	off  int64
}

func newFile(fs *FS, noteIdx int) (f *File) {
	f = &File{
		fs:   fs,
		note: &fs.notes[noteIdx],
		off:  noteOffset(fs.id.BankCount, noteIdx),
	}
	f.Reader = io.NewSectionReader(f, 0, 1<<63-1)
	return
}

// pages returns the note's page chain in file order by walking the inode
// table from the note's start page.
func (f *File) pages() ([]uint16, error) {
	pages := []uint16{}
	page := f.note.StartPage
	if page == 0 {
		return pages, nil
	}
	for page != inodeLast {
		if !f.fs.validPage(page) {
			return nil, ErrInconsistent
		}
		pages = append(pages, page)
		page = f.fs.inodes[page]
	}
	return pages, nil
}

// section returns the pages backing the byte range [off, off+n) of the note.
// If the range extends beyond EOF, pagesEOF is the number of pages that would
// have to be allocated to cover it.
func (f *File) section(off int64, n int64) (pages []uint16, pagesEOF int, err error) {
	if off < 0 {
		err = fs.ErrInvalid
		return
	}
	if n <= 0 {
		return
	}

	pages, err = f.pages()
	if err != nil {
		return
	}

	startIdx := int(off >> pageBits)
	endIdx := int((off + n + pageMask) >> pageBits)
	if endIdx > len(pages) {
		pagesEOF = endIdx - len(pages)
		endIdx = len(pages)
		startIdx = min(startIdx, endIdx)
	}

	return pages[startIdx:endIdx], pagesEOF, nil
}

// allocPages appends pageCnt zero-filled pages to the note's chain.
func (f *File) allocPages(pageCnt int) (err error) {
	dev, ok := f.fs.dev.(io.WriterAt)
	if !ok {
		return ErrReadOnly
	}

	newPages := make([]uint16, 0, pageCnt)
	for page, inode := range inodes(f.fs) {
		if inode == inodeFree {
			newPages = append(newPages, uint16(page))
		}
		if len(newPages) >= pageCnt {
			break
		}
	}
	if len(newPages) < pageCnt {
		return ErrNoSpace
	}

	pages, err := f.pages()
	if err != nil {
		return
	}

	// Chain up the new pages first, then link them to the note. Order
	// matters if we get interrupted halfway.
	for i, page := range newPages[:len(newPages)-1] {
		f.fs.inodes[page] = newPages[i+1]
	}
	f.fs.inodes[newPages[len(newPages)-1]] = inodeLast
	if len(pages) == 0 {
		f.note.StartPage = newPages[0]
		if err = f.sync(); err != nil {
			return
		}
	} else {
		f.fs.inodes[pages[len(pages)-1]] = newPages[0]
	}

	var zero [pageSize]byte
	for _, page := range newPages {
		if _, err = dev.WriteAt(zero[:], int64(page)<<pageBits); err != nil {
			return
		}
	}

	return f.fs.sync()
}

// freePages removes up to pageCnt pages from the end of the note's chain.
func (f *File) freePages(pageCnt int) (err error) {
	pages, err := f.pages()
	if err != nil {
		return
	}

	pageCnt = min(pageCnt, len(pages))
	for _, page := range pages[len(pages)-pageCnt:] {
		f.fs.inodes[page] = inodeFree
	}
	pages = pages[:len(pages)-pageCnt]

	if len(pages) == 0 {
		f.note.StartPage = inodeLast
		if err = f.sync(); err != nil {
			return
		}
	} else {
		f.fs.inodes[pages[len(pages)-1]] = inodeLast
	}

	return f.fs.sync()
}

// sync writes the game note back to the pak.
func (f *File) sync() error {
	dev, ok := f.fs.dev.(io.WriterAt)
	if !ok {
		return ErrReadOnly
	}

	ow := io.NewOffsetWriter(dev, f.off)
	return binary.Write(ow, binary.BigEndian, f.note)
}

// pageIO copies between b and the note's pages starting at byte offset off,
// one page at a time.
func pageIO(b []byte, off int64, pages []uint16, xfer func(b []byte, addr int64) (int, error)) (n int, err error) {
	pageOff := off & pageMask
	for _, page := range pages {
		l := min(pageSize-int(pageOff), len(b[n:]))
		addr := int64(page)<<pageBits + pageOff
		written, err := xfer(b[n:n+l], addr)
		n += written
		if err != nil {
			return n, err
		}
		pageOff = 0
	}
	return n, nil
}

func (f *File) ReadAt(b []byte, off int64) (n int, err error) {
	f.fs.mtx.RLock()
	defer f.fs.mtx.RUnlock()

	pages, pagesEOF, err := f.section(off, int64(len(b)))
	if err != nil {
		return
	}

	n, err = pageIO(b, off, pages, f.fs.dev.ReadAt)
	if err == nil && pagesEOF > 0 {
		err = io.EOF
	}
	return
}

func (f *File) WriteAt(b []byte, off int64) (n int, err error) {
	f.fs.mtx.Lock()
	defer f.fs.mtx.Unlock()

	dev, ok := f.fs.dev.(io.WriterAt)
	if !ok {
		return 0, ErrReadOnly
	}

	pages, pagesEOF, err := f.section(off, int64(len(b)))
	if err != nil {
		return
	}
	if pagesEOF > 0 {
		if err = f.allocPages(pagesEOF); err != nil {
			return
		}
		if pages, _, err = f.section(off, int64(len(b))); err != nil {
			return
		}
	}

	return pageIO(b, off, pages, dev.WriteAt)
}

// decodeName decodes a null terminated N64 font code string.
func decodeName(b []byte) string {
	if null := bytes.IndexByte(b, 0); null != -1 {
		b = b[:null]
	}
	s, _ := N64FontCodeStrict.NewDecoder().String(string(b))
	return s
}

// FIXME this can result in the same filename for two different notes, if the
// extension was stored in note.FileName by another pakfs implementation.
func (f *File) name() string {
	name := decodeName(f.note.FileName[:])
	if ext := decodeName(f.note.Extension[:]); ext != "" {
		name = name + "." + ext
	}
	return name
}

func (f *File) setName(filename string) error {
	extension := path.Ext(filename)
	if extension != "." {
		filename = strings.TrimSuffix(filename, extension)
	}
	extension = strings.TrimPrefix(extension, ".")

	for _, v := range [...]struct {
		dst []byte
		src string
	}{
		{f.note.FileName[:], filename},
		{f.note.Extension[:], extension},
	} {
		s, err := N64FontCodeStrict.NewEncoder().String(v.src)
		if err != nil {
			return err
		}
		if len(s) > len(v.dst) {
			return ErrNameTooLong
		}
		n := copy(v.dst, s)
		clear(v.dst[n:])
	}

	return nil
}

// CompanyCode returns the ASCII encoded company code of this file.
func (f *File) CompanyCode() [2]byte {
	f.fs.mtx.RLock()
	defer f.fs.mtx.RUnlock()

	return f.note.PublisherCode
}

// SetCompanyCode writes the ASCII encoded company code of this file.
func (f *File) SetCompanyCode(code [2]byte) error {
	f.fs.mtx.Lock()
	defer f.fs.mtx.Unlock()

	f.note.PublisherCode = code
	return f.sync()
}

// GameCode returns the ASCII encoded game code of this file.
func (f *File) GameCode() [4]byte {
	f.fs.mtx.RLock()
	defer f.fs.mtx.RUnlock()

	return f.note.GameCode
}

// SetGameCode writes the ASCII encoded game code of this file.
func (f *File) SetGameCode(code [4]byte) error {
	f.fs.mtx.Lock()
	defer f.fs.mtx.Unlock()

	f.note.GameCode = code
	return f.sync()
}

// fs.File implementation

func (f *File) Stat() (fs.FileInfo, error) { return f, nil }
func (f *File) Close() error               { return nil }

// fs.FileInfo implementation

func (f *File) Name() string {
	f.fs.mtx.RLock()
	defer f.fs.mtx.RUnlock()

	return f.name()
}
func (f *File) Size() int64 {
	f.fs.mtx.RLock()
	defer f.fs.mtx.RUnlock()

	pages, err := f.pages()
	if err != nil {
		return 0
	}
	return int64(len(pages) << pageBits)
}
func (f *File) Mode() fs.FileMode  { return 0666 }
func (f *File) ModTime() time.Time { return time.Time{} }
func (f *File) IsDir() bool        { return f.Mode().IsDir() }
func (f *File) Sys() any           { return nil }
