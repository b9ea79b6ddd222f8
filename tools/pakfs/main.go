package pakfs

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path"

	"github.com/nkraut/n64/drivers/controller/pakfs"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
	"rsc.io/rsc/fuse"
)

func must[T any](ret T, err error) T {
	if err != nil {
		fmt.Print(err)
		os.Exit(1)
	}
	return ret
}

const usageString = `Controller Pak File System Utility.

Usage:

	%s <command> [arguments]

The commands are:

	mount <image> <dir>		serve pakfs image via fuse
	format <image>			create an empty pakfs image
	sd <sdimage> [dir]		list pak backups on a flashcart's sd card image
	extract <sdimage> <file> [out]	copy a pak backup from an sd card image
`

var flags = flag.NewFlagSet("pakfs", flag.ExitOnError)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "pakfs")
	flags.PrintDefaults()
}

// sdFilesystem returns the filesystem of a flashcart's sd card image.  Tries
// the raw image first, then the first partition.
func sdFilesystem(image string) (filesystem.FileSystem, error) {
	disk, err := diskfs.Open(image)
	if err != nil {
		return nil, err
	}
	fs, err := disk.GetFilesystem(0)
	if err == nil {
		return fs, nil
	}
	return disk.GetFilesystem(1)
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(1)
	}

	sigintr := make(chan os.Signal)
	signal.Notify(sigintr, os.Interrupt)

	switch flags.Arg(0) {
	case "mount":
		if flags.NArg() < 3 {
			flags.Usage()
			os.Exit(1)
		}
		image := flags.Arg(1)
		dir := flags.Arg(2)
		c := must(fuse.Mount(dir))
		r := must(os.OpenFile(image, os.O_RDWR, 0))
		fs := must(pakfs.Read(r))

		go c.Serve(&FS{fs})
		<-sigintr

		cmd := exec.Command("/bin/umount", dir)
		must(cmd.CombinedOutput())
	case "format":
		if flags.NArg() < 2 {
			flags.Usage()
			os.Exit(1)
		}
		f := must(os.Create(flags.Arg(1)))
		defer f.Close()
		must(f.Truncate(32 * 1024))
		fs := must(pakfs.Format(f))
		fmt.Printf("%s: %d bytes free\n", flags.Arg(1), fs.Free())
	case "sd":
		if flags.NArg() < 2 {
			flags.Usage()
			os.Exit(1)
		}
		dir := "/"
		if flags.NArg() > 2 {
			dir = flags.Arg(2)
		}
		fs := must(sdFilesystem(flags.Arg(1)))
		for _, fi := range must(fs.ReadDir(dir)) {
			if fi.IsDir() {
				fmt.Printf("%12s %s/\n", "", fi.Name())
			} else {
				fmt.Printf("%12d %s\n", fi.Size(), fi.Name())
			}
		}
	case "extract":
		if flags.NArg() < 3 {
			flags.Usage()
			os.Exit(1)
		}
		file := flags.Arg(2)
		out := path.Base(file)
		if flags.NArg() > 3 {
			out = flags.Arg(3)
		}
		fs := must(sdFilesystem(flags.Arg(1)))
		src := must(fs.OpenFile(file, os.O_RDONLY))
		dst := must(os.Create(out))
		defer dst.Close()
		n := must(io.Copy(dst, src))
		fmt.Printf("%s: %d bytes\n", out, n)
	default:
		fmt.Fprintf(flags.Output(), "unknown command: %s\n", flags.Arg(0))
		flags.Usage()
		os.Exit(1)
	}
}
