package toolexec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Package archives written by the compiler are Unix ar files. We only need to
// list the entries, read single entries and append new ones, so a minimal
// implementation is kept here instead of depending on cmd/internal/archive.

const (
	arMagic     = "!<arch>\n"
	arHdrSize   = 60
	arEntMagic  = "`\n"
	arNameLen   = 16
	arHdrFormat = "%-16s%-12d%-6d%-6d%-8o%-10d`\n"
)

type arEntry struct {
	name string
	off  int64 // data offset in the file
	size int64
}

type archive struct {
	f       *os.File
	entries []arEntry
	size    int64 // total file size including padding
}

// parseArchive reads the entry headers of an ar file.
func parseArchive(f *os.File) (*archive, error) {
	var magic [len(arMagic)]byte
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(len(magic))), magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != arMagic {
		return nil, errors.New("not an archive file")
	}

	ar := &archive{f: f}
	off := int64(len(arMagic))
	var hdr [arHdrSize]byte
	for {
		_, err := f.ReadAt(hdr[:], off)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if string(hdr[arHdrSize-2:]) != arEntMagic {
			return nil, errors.New("corrupt archive entry header")
		}
		name := strings.TrimRight(string(hdr[:arNameLen]), " ")
		size, err := strconv.ParseInt(strings.TrimSpace(string(hdr[48:58])), 10, 64)
		if err != nil {
			return nil, err
		}

		ar.entries = append(ar.entries, arEntry{name, off + arHdrSize, size})
		off += arHdrSize + size
		off += off & 1 // entries are 2-byte aligned
	}
	ar.size = off

	return ar, nil
}

// OpenEntry returns a reader for the named entry, or nil if there is no such
// entry.
func (ar *archive) OpenEntry(name string) io.Reader {
	for _, e := range ar.entries {
		if e.name == name {
			return io.NewSectionReader(ar.f, e.off, e.size)
		}
	}
	return nil
}

// AddEntry appends a new entry to the archive.
func (ar *archive) AddEntry(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	hdr := fmt.Sprintf(arHdrFormat, name, 0, 0, 0, 0644, len(data))
	w := io.NewOffsetWriter(ar.f, ar.size)
	if _, err := w.Write([]byte(hdr)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	ar.entries = append(ar.entries, arEntry{name, ar.size + arHdrSize, int64(len(data))})
	ar.size += arHdrSize + int64(len(data))
	if ar.size&1 != 0 {
		if _, err := w.Write([]byte("\n")); err != nil {
			return err
		}
		ar.size++
	}

	return nil
}
