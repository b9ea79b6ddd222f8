//go:build n64

package cartfs

import (
	"embed"
	"errors"
	"io/fs"
	"math"

	"github.com/nkraut/n64/rcp/cpu"
	"github.com/nkraut/n64/rcp/periph"
)

// On target n64 base holds the pi bus address of the cartfs image. If set to
// a non-zero value, a pi bus device is initialized on first use of the
// filesystem.
type baseType = cpu.Addr

func embedfs(_ embed.FS) FS {
	// Initialize with a non-zero value to force the symbol into .data
	// instead of .bss. The actual ROM address is patched in after linking
	// by the toolexec wrapper.
	return FS{base: 0xffff_ffff}
}

func (f *FS) baseInit() error {
	if f.dev != nil || f.base == 0x0 {
		return nil
	}
	if f.base == 0xffff_ffff {
		return errors.New("cartfs.Embed not patched at link time")
	}
	dev := periph.NewDevice(f.base, math.MaxUint32)
	fnew, err := Read(dev)
	if err != nil {
		return err
	}
	*f = *fnew
	return nil
}

func (f *FS) baseOpen(name string) (fs.File, error) {
	if err := f.baseInit(); err != nil {
		return nil, err
	}
	return f.romOpen(name)
}
func (f *FS) baseReadFile(name string) ([]byte, error) {
	if err := f.baseInit(); err != nil {
		return nil, err
	}
	return f.romReadFile(name)
}
func (f *FS) baseReadDir(name string) ([]fs.DirEntry, error) {
	if err := f.baseInit(); err != nil {
		return nil, err
	}
	return f.romReadDir(name)
}
