// Package pakfs implements the filesystem used by the controller pak to
// store game saves, called notes.
package pakfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
)

var (
	ErrInconsistent  = errors.New("damaged filesystem")
	ErrInvalidOffset = errors.New("invalid offset")
	ErrReadOnly      = errors.New("read-only filesystem")
	ErrNoSpace       = errors.New("no space left on pak")
	ErrNameTooLong   = errors.New("filename too long")
	ErrIsDir         = errors.New("is a directory")
)

const (
	pagesPerBankBits = 7
	pagesPerBank     = 1 << pagesPerBankBits
)
const (
	pageBits = 8
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

const blockLen = 32
const (
	baseLabel     = 0x0000
	baseID        = 0x0020
	baseIDBackup1 = 0x0060
	baseIDBackup2 = 0x0080
	baseIDBackup3 = 0x00c0
)

const noteCnt = 16

type idSector struct {
	Repaired    uint32
	Random      uint32
	Serial      [16]byte
	DeviceId    uint16
	BankCount   uint8
	Version     uint8
	Checksum    uint16
	ChecksumInv uint16
}

func (s idSector) checksum() (csum uint16, csumInv uint16) {
	const csumSize = 4
	buf := bytes.NewBuffer(make([]byte, blockLen))
	binary.Write(buf, binary.BigEndian, s)
	for i := 0; i < buf.Len()-csumSize; i += 2 {
		csum += uint16(buf.Bytes()[i])<<8 | uint16(buf.Bytes()[i+1])
	}
	csumInv = 0xfff2 - csum
	return
}

func (s idSector) valid() bool {
	csum, csumInv := s.checksum()
	return csum == s.Checksum && csumInv == s.ChecksumInv
}

type iNodes []uint16

func (s iNodes) valid(firstPage int) bool {
	for lastPage := pagesPerBank; lastPage <= len(s); lastPage += pagesPerBank {
		var csum uint16
		for _, v := range s[firstPage:lastPage] {
			csum += v
		}
		if csum&0xff != s[0]&0xff {
			return false
		}

		firstPage = 1
	}
	return true
}

// updateChecksum recomputes the inode table checksum after a modification.
func (s iNodes) updateChecksum(firstPage int) {
	var csum uint16
	for _, v := range s[firstPage:min(pagesPerBank, len(s))] {
		csum += v
	}
	s[0] = csum & 0xff
}

// One of 16 game notes that the pak can store.
type note struct {
	GameCode      [4]byte
	PublisherCode [2]byte
	StartPage     uint16
	Status        uint8
	_             uint8
	_             uint16
	Extension     [4]byte
	FileName      [16]byte
}

const noteStatusOccupied = 0x02

type FS struct {
	dev io.ReaderAt

	mtx    sync.RWMutex
	id     idSector
	inodes iNodes
	notes  [noteCnt]note
}

func Read(dev io.ReaderAt) (fs *FS, err error) {
	fs = &FS{dev: dev}

	for _, base := range [...]int64{baseID, baseIDBackup1, baseIDBackup2, baseIDBackup3} {
		r := io.NewSectionReader(dev, base, blockLen)
		err := binary.Read(r, binary.BigEndian, &fs.id)
		if err != nil {
			return nil, err
		}

		if fs.id.valid() {
			goto validId
		}
	}
	return nil, ErrInconsistent

validId:
	for _, r := range [...]*io.SectionReader{iNodesReader(dev, fs.id.BankCount), iNodesBakReader(dev, fs.id.BankCount)} {
		fs.inodes = make(iNodes, r.Size()>>1)
		err = binary.Read(r, binary.BigEndian, &fs.inodes)
		if err != nil {
			return nil, err
		}

		if fs.inodes.valid(fs.firstPage()) {
			goto validINodes
		}
	}
	return nil, ErrInconsistent

validINodes:
	err = binary.Read(notesReader(dev, fs.id.BankCount), binary.BigEndian, &fs.notes)
	if err != nil {
		return nil, err
	}

	return fs, nil
}

// Format writes a new empty filesystem with a single bank, erasing all
// notes.
func Format(dev io.ReaderAt) (*FS, error) {
	w, ok := dev.(io.WriterAt)
	if !ok {
		return nil, ErrReadOnly
	}

	p := &FS{dev: dev}
	p.id = idSector{
		DeviceId:  0x0001,
		BankCount: 1,
	}
	p.id.Checksum, p.id.ChecksumInv = p.id.checksum()

	idBlock := bytes.NewBuffer(make([]byte, 0, blockLen))
	binary.Write(idBlock, binary.BigEndian, p.id)
	for _, base := range [...]int64{baseID, baseIDBackup1, baseIDBackup2, baseIDBackup3} {
		if _, err := w.WriteAt(idBlock.Bytes(), base); err != nil {
			return nil, err
		}
	}

	p.inodes = make(iNodes, pagesPerBank)
	for page := p.firstPage(); page < len(p.inodes); page++ {
		p.inodes[page] = inodeFree
	}

	if err := p.sync(); err != nil {
		return nil, err
	}

	var noteBlock [blockLen]byte
	for i := range p.notes {
		if _, err := w.WriteAt(noteBlock[:], noteOffset(p.id.BankCount, i)); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Write the inode table and its backup back to disk.  Callers must hold the
// write lock.
func (p *FS) sync() error {
	dev, ok := p.dev.(io.WriterAt)
	if !ok {
		return ErrReadOnly
	}

	p.inodes.updateChecksum(p.firstPage())

	buf := bytes.NewBuffer(make([]byte, 0, len(p.inodes)<<1))
	err := binary.Write(buf, binary.BigEndian, p.inodes)
	if err != nil {
		return err
	}

	iNodesBase := int64(1) << pageBits
	iNodesBakBase := (1 + int64(p.id.BankCount)) << pageBits
	for _, base := range [...]int64{iNodesBase, iNodesBakBase} {
		if _, err := dev.WriteAt(buf.Bytes(), base); err != nil {
			return err
		}
	}

	return nil
}

func (p *FS) Open(name string) (fs.File, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}

	if name == "." {
		return p.Root(), nil
	}

	idx := p.lookup(name)
	if idx < 0 {
		return nil, fs.ErrNotExist
	}

	return newFile(p, idx), nil
}

// lookup returns the note index for a filename, -1 if it doesn't exist.
// Callers must hold at least the read lock.
func (p *FS) lookup(name string) int {
	for i := range p.notes {
		if p.notes[i].StartPage == 0 {
			continue
		}
		f := File{fs: p, note: &p.notes[i]}
		if f.name() == name {
			return i
		}
	}
	return -1
}

// Create allocates a note for a new empty file.  The file may grow later by
// writing to it.
func (p *FS) Create(name string) (*File, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}
	if name == "." {
		return nil, ErrIsDir
	}
	if strings.ContainsRune(name, '/') {
		// no subdirectories on a pak
		return nil, fs.ErrNotExist
	}
	if p.lookup(name) >= 0 {
		return nil, fs.ErrExist
	}

	idx := -1
	for i := range p.notes {
		if p.notes[i].StartPage == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNoSpace
	}

	p.notes[idx] = note{
		StartPage: inodeLast,
		Status:    noteStatusOccupied,
	}
	f := newFile(p, idx)
	if err := f.setName(name); err != nil {
		p.notes[idx] = note{}
		return nil, err
	}
	if err := f.sync(); err != nil {
		p.notes[idx] = note{}
		return nil, err
	}

	return f, nil
}

// Remove deletes a file and frees its pages.
func (p *FS) Remove(name string) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !fs.ValidPath(name) {
		return fs.ErrInvalid
	}
	if name == "." {
		return ErrIsDir
	}

	idx := p.lookup(name)
	if idx < 0 {
		return fs.ErrNotExist
	}

	f := newFile(p, idx)
	pages, err := f.pages()
	if err != nil {
		return err
	}
	if err := f.freePages(len(pages)); err != nil {
		return err
	}

	p.notes[idx] = note{}
	return f.sync()
}

// Rename changes a file's name, keeping its data.
func (p *FS) Rename(oldname, newname string) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !fs.ValidPath(oldname) || !fs.ValidPath(newname) {
		return fs.ErrInvalid
	}
	if oldname == "." || newname == "." {
		return ErrIsDir
	}

	idx := p.lookup(oldname)
	if idx < 0 {
		return fs.ErrNotExist
	}
	if other := p.lookup(newname); other >= 0 && other != idx {
		return fs.ErrExist
	}

	f := newFile(p, idx)
	if err := f.setName(newname); err != nil {
		return err
	}
	return f.sync()
}

// Truncate grows or shrinks a file to size, rounded up to whole pages.  New
// space reads as zeroes.
func (p *FS) Truncate(name string, size int64) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if size < 0 || !fs.ValidPath(name) {
		return fs.ErrInvalid
	}
	if name == "." {
		return ErrIsDir
	}

	idx := p.lookup(name)
	if idx < 0 {
		return fs.ErrNotExist
	}

	f := newFile(p, idx)
	pages, err := f.pages()
	if err != nil {
		return err
	}

	wantPages := int((size + pageMask) >> pageBits)
	if wantPages > len(pages) {
		if err := f.allocPages(wantPages - len(pages)); err != nil {
			return err
		}
	} else if wantPages < len(pages) {
		if err := f.freePages(len(pages) - wantPages); err != nil {
			return err
		}
	}

	// zero the tail of the last remaining page
	if tail := int64(wantPages)<<pageBits - size; tail > 0 {
		dev, ok := p.dev.(io.WriterAt)
		if !ok {
			return ErrReadOnly
		}
		pages, err = f.pages()
		if err != nil {
			return err
		}
		last := pages[len(pages)-1]
		zeroes := make([]byte, tail)
		pageAddr := int64(last) << pageBits
		if _, err := dev.WriteAt(zeroes, pageAddr+pageSize-tail); err != nil {
			return err
		}
	}

	return nil
}

func (p *FS) Label() string {
	label := [blockLen]byte{}
	_, err := p.dev.ReadAt(label[:], baseLabel)
	if err != nil {
		return ""
	}
	return string(label[:])
}

func (p *FS) Root() *rootDir {
	return &rootDir{fs: p}
}

// ReadDirRoot lists all files.  The pak has no subdirectories.
func (p *FS) ReadDirRoot() []fs.DirEntry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	root := make([]fs.DirEntry, 0, noteCnt)
	for i := range p.notes {
		if p.notes[i].StartPage == 0 {
			continue
		}
		f := File{fs: p, note: &p.notes[i]}
		root = append(root, &dirEntry{fs: p, name: f.name()})
	}
	return root
}

func (p *FS) Size() int64 {
	totalPages := int64(len(p.inodes)) - int64(p.id.BankCount) - int64(p.id.BankCount<<1) - 2
	return totalPages << pageBits
}

func (p *FS) Free() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	freePages := 0
	inodes(p)(func(page int, inode uint16) bool {
		if inode == inodeFree {
			freePages += 1
		}
		return true
	})
	return int64(freePages << pageBits)
}

func (p *FS) firstPage() int {
	return 1 + int(p.id.BankCount)<<1 + 2
}

func (p *FS) validPage(page uint16) bool {
	return !(page < uint16(p.firstPage()) ||
		page >= uint16(len(p.inodes)) ||
		page&pageMask == 0)
}

// rangefunc for iterating inodes
// TODO use range syntax at callsites after updating to Go1.23
func inodes(p *FS) func(func(int, uint16) bool) {
	return func(yield func(int, uint16) bool) {
		page := p.firstPage()
		lastPage := pagesPerBank
		for range p.id.BankCount {
			for page < lastPage {
				if !yield(page, p.inodes[page]) {
					return
				}
				page += 1
			}
			page += 1 // skip csum
			lastPage += pagesPerBank
		}
	}
}

func iNodesReader(dev io.ReaderAt, bankCount uint8) *io.SectionReader {
	off := int64(1 << pageBits)
	n := int64(bankCount) << pageBits
	return io.NewSectionReader(dev, off, n)
}

func iNodesBakReader(dev io.ReaderAt, bankCount uint8) *io.SectionReader {
	off := (1 + int64(bankCount)) << pageBits
	n := int64(bankCount) << pageBits
	return io.NewSectionReader(dev, off, n)
}

func notesReader(dev io.ReaderAt, bankCount uint8) *io.SectionReader {
	off := (1 + int64(bankCount)<<1) << pageBits
	n := int64(2) << pageBits
	return io.NewSectionReader(dev, off, n)
}

func noteOffset(bankCount uint8, noteIdx int) int64 {
	return (1+int64(bankCount)<<1)<<pageBits + int64(noteIdx)*blockLen
}
