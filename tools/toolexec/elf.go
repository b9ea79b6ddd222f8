package toolexec

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"io"
	"slices"
)

// elfFile64 gives limited write access to 64-bit elf binaries. debug/elf only
// parses, but we need to append a section and patch symbol values after
// linking.
type elfFile64 struct {
	ByteOrder binary.ByteOrder

	FileHeader     elf.Header64
	ProgHeaders    []elf.Prog64
	SectionHeaders []elf.Section64
	Sections       [][]byte

	SectionNames map[string]int
	Symbols      []elf.Symbol
}

func readElf64(r io.ReaderAt) (*elfFile64, error) {
	elfFile, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	if elfFile.Class != elf.ELFCLASS64 {
		return nil, errors.New("not a 64-bit elf")
	}
	symbols, err := elfFile.Symbols()
	if err != nil {
		return nil, err
	}

	ef := &elfFile64{
		ByteOrder: elfFile.ByteOrder,
		Symbols:   symbols,
	}

	sr := io.NewSectionReader(r, 0, 1<<63-1)
	if err := binary.Read(sr, ef.ByteOrder, &ef.FileHeader); err != nil {
		return nil, err
	}

	ef.ProgHeaders = make([]elf.Prog64, ef.FileHeader.Phnum)
	if _, err := sr.Seek(int64(ef.FileHeader.Phoff), io.SeekStart); err != nil {
		return nil, err
	}
	if err := binary.Read(sr, ef.ByteOrder, &ef.ProgHeaders); err != nil {
		return nil, err
	}

	ef.SectionHeaders = make([]elf.Section64, ef.FileHeader.Shnum)
	if _, err := sr.Seek(int64(ef.FileHeader.Shoff), io.SeekStart); err != nil {
		return nil, err
	}
	if err := binary.Read(sr, ef.ByteOrder, &ef.SectionHeaders); err != nil {
		return nil, err
	}

	ef.Sections = make([][]byte, ef.FileHeader.Shnum)
	ef.SectionNames = make(map[string]int, ef.FileHeader.Shnum)
	for i, section := range ef.SectionHeaders {
		sr := io.NewSectionReader(r, int64(section.Off), int64(section.Size))
		if ef.Sections[i], err = io.ReadAll(sr); err != nil {
			return nil, err
		}
		ef.SectionNames[elfFile.Sections[i].Name] = i
	}

	return ef, nil
}

func (p *elfFile64) Write(w io.WriterAt) error {
	for _, part := range []struct {
		off  int64
		data any
	}{
		{0, p.FileHeader},
		{int64(p.FileHeader.Phoff), p.ProgHeaders},
		{int64(p.FileHeader.Shoff), p.SectionHeaders},
	} {
		ow := io.NewOffsetWriter(w, part.off)
		if err := binary.Write(ow, p.ByteOrder, part.data); err != nil {
			return err
		}
	}

	for i, section := range p.SectionHeaders {
		if section.Type == uint32(elf.SHT_NULL) || section.Type == uint32(elf.SHT_NOBITS) {
			continue
		}
		ow := io.NewOffsetWriter(w, int64(section.Off))
		if _, err := io.Copy(ow, bytes.NewReader(p.Sections[i])); err != nil {
			return err
		}
	}

	return nil
}

func alignUp(addr uint64, align uint64) uint64 {
	return (addr + align - 1) &^ (align - 1)
}

// recalculateOffsets repacks all section data after the headers. Called after
// a section was added or resized.
func (p *elfFile64) recalculateOffsets() {
	// The ProgHeaders aren't needed anymore, drop them instead of
	// recalculating their offsets.
	p.FileHeader.Phnum = 0
	p.ProgHeaders = []elf.Prog64{}

	seek := uint64(p.FileHeader.Ehsize)
	seek += uint64(p.FileHeader.Phentsize) * uint64(p.FileHeader.Phnum)
	seek += uint64(p.FileHeader.Shentsize) * uint64(p.FileHeader.Shnum)
	seek = alignUp(seek, 4096)
	for i, section := range p.SectionHeaders {
		if section.Type == uint32(elf.SHT_NULL) {
			continue
		}
		seek = alignUp(seek, section.Addralign)
		p.SectionHeaders[i].Off = seek
		if section.Type == uint32(elf.SHT_NOBITS) {
			continue
		}
		seek += section.Size
	}
}

// AddProgSection appends an allocated PROGBITS section and returns the
// virtual address it was placed at, right after the last allocated section.
func (p *elfFile64) AddProgSection(name string, align uint64, data []byte) (addr uint64) {
	nameidx := 0
	if shstrtab, ok := p.SectionNames[".shstrtab"]; ok {
		nameidx = len(p.Sections[shstrtab])
		p.Sections[shstrtab] = append(p.Sections[shstrtab], []byte(name)...)
		p.Sections[shstrtab] = append(p.Sections[shstrtab], 0)
		p.SectionHeaders[shstrtab].Size = uint64(len(p.Sections[shstrtab]))
		p.SectionNames[name] = len(p.Sections) - 1
	}

	for _, section := range p.SectionHeaders {
		if section.Type == uint32(elf.SHT_PROGBITS) &&
			section.Flags&uint64(elf.SHF_ALLOC) != 0 {
			addr = max(addr, section.Addr+section.Size)
		}
	}
	addr = alignUp(addr, align)

	p.SectionHeaders = append(p.SectionHeaders, elf.Section64{
		Name:      uint32(nameidx),
		Type:      uint32(elf.SHT_PROGBITS),
		Flags:     uint64(elf.SHF_ALLOC),
		Size:      uint64(len(data)),
		Addr:      addr,
		Addralign: align,
	})
	p.Sections = append(p.Sections, data)
	p.FileHeader.Shnum += 1

	p.recalculateOffsets()

	return
}

var errNoSymbol = errors.New("no such symbol")

func (p *elfFile64) Symbol(name string) (*elf.Symbol, error) {
	idx := slices.IndexFunc(p.Symbols, func(s elf.Symbol) bool {
		return s.Name == name
	})
	if idx == -1 {
		return nil, errNoSymbol
	}
	return &p.Symbols[idx], nil
}

// SetSymbol overwrites the symbol's storage in its section with the binary
// representation of value.
func (p *elfFile64) SetSymbol(name string, value any) error {
	sym, err := p.Symbol(name)
	if err != nil {
		return err
	}
	sympos := sym.Value - p.SectionHeaders[sym.Section].Addr
	symdata := p.Sections[sym.Section][sympos : sympos+sym.Size]

	buf := bytes.NewBuffer(nil)
	binary.Write(buf, p.ByteOrder, value)

	if uint64(buf.Len()) > sym.Size {
		return errors.New("symbol size exceeded")
	}

	copy(symdata, buf.Bytes())

	return nil
}
