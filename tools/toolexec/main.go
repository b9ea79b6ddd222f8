// Package toolexec hooks into the build via go build's -toolexec flag. It
// enforces linker settings required for n64 binaries and implements the
// compile and link time halves of the cartfs pipeline.
package toolexec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nkraut/n64/drivers/cartfs"
)

const (
	entryAddr = 0x400
	ipl3Size  = 0x1000
	romBase   = 0x1000_0000 + ipl3Size - entryAddr
)

func Main(args []string) {
	if len(args) < 2 {
		log.Fatalln("no command")
	}
	cmdname := args[1]
	cmdargs := args[2:]

	tool := filepath.Base(cmdname)
	switch tool {
	case "link":
		cmdargs = preLink(cmdargs)
	case "compile":
		cmdargs = preCompile(cmdargs)
	}

	cmd := exec.Command(cmdname, cmdargs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err, ok := err.(*exec.ExitError); ok {
		os.Exit(err.ExitCode())
	}
	if err != nil {
		log.Fatalln(err)
	}

	switch tool {
	case "link":
		postLink()
	case "compile":
		postCompile()
	}
}

// boolFlag parses like a bool flag, i.e. a value can only be given with the
// "=" syntax, but accepts arbitrary values besides true and false.
type boolFlag struct{ val string }

func (c *boolFlag) Set(s string) error { c.val = s; return nil }
func (c *boolFlag) String() string     { return c.val }
func (c *boolFlag) IsBoolFlag() bool   { return true }

var linkArgs = flag.NewFlagSet("link", flag.ContinueOnError)
var (
	linkPrintVersion  = linkArgs.String("V", "", "")
	linkOutfilePath   = linkArgs.String("o", "", "")
	linkImportcfgPath = linkArgs.String("importcfg", "", "")
	linkFormatType    = linkArgs.String("H", "", "")
)

// All remaining linker flags must be known to the flag set, parsing would
// fail otherwise. Which of them are bool flags matters for parsing, nothing
// else does.
var linkIgnoredBoolFlags = []string{
	"8", "a", "asan", "aslr", "bindnow", "c", "checklinkname",
	"compressdwarf", "d", "debugnosplit", "dumpdep", "f", "g", "h",
	"linkshared", "msan", "n", "pruneweakmap", "race", "s", "v", "w",
}

var linkIgnoredFlags = []string{
	"B", "E", "F", "I", "L", "M", "R", "T", "X", "benchmark",
	"benchmarkprofile", "buildid", "buildmode", "capturehostobjs",
	"cpuprofile", "debugtextsize", "debugtramp", "extar", "extld",
	"extldflags", "fipso", "installsuffix", "k", "libgcc", "linkmode",
	"memprofile", "memprofilerate", "pluginpath", "r", "randlayout",
	"strictdups", "stripfn", "tmpdir",
}

func init() {
	for _, name := range linkIgnoredBoolFlags {
		linkArgs.Var(&boolFlag{}, name, "")
	}
	for _, name := range linkIgnoredFlags {
		linkArgs.String(name, "", "")
	}
}

func preLink(args []string) []string {
	linkArgs.SetOutput(io.Discard)
	if err := linkArgs.Parse(args); err != nil {
		log.Fatalln("ldflags:", err)
	}

	if *linkPrintVersion != "" {
		// TODO modify version based on this binaries buildid to
		// invalidate caches if the tool has changed
		return args
	}

	filteredArgs := make([]string, 0)
	linkArgs.Visit(func(f *flag.Flag) {
		// Keep symbol tables, the link step needs them for patching
		// TODO Check if we can use ldflags -X instead
		if f.Name == "s" {
			return
		}
		filteredArgs = append(filteredArgs, "-"+f.Name+"="+f.Value.String())
	})
	filteredArgs = append(filteredArgs, "-M=0x00000000:8M")
	filteredArgs = append(filteredArgs, "-F=0x00000400:8M")
	filteredArgs = append(filteredArgs, linkArgs.Args()...)

	return filteredArgs
}

// collectImages walks all package archives listed in the importcfg and
// concatenates their cartfs images, each padded to cartfs.Align. Images whose
// symbol didn't survive dead code elimination are skipped. Returns the
// concatenated images and the offset of each symbol's image in them.
func collectImages(importcfg string, elf *elfFile64) (*bytes.Buffer, map[string]uint32) {
	importcfgFile, err := os.Open(importcfg)
	if err != nil {
		log.Fatalln("open importcfg:", err)
	}
	defer importcfgFile.Close()

	images := bytes.NewBuffer(nil)
	offsets := make(map[string]uint32)

	pad := func() {
		n := alignUp(uint64(images.Len()), cartfs.Align) - uint64(images.Len())
		if _, err := images.Write(make([]byte, n)); err != nil {
			log.Fatalln(err)
		}
	}

	scanner := bufio.NewScanner(importcfgFile)
	for scanner.Scan() { // for each dependency
		line := scanner.Text()
		kvpair := strings.TrimPrefix(line, "packagefile ")
		if kvpair == line {
			continue
		}
		_, pkgfilePath, found := strings.Cut(kvpair, "=")
		if !found {
			log.Fatalln("parsing importcfg:", line)
		}

		pkgfile, err := os.Open(pkgfilePath)
		if err != nil {
			log.Fatalln(err)
		}
		ar, err := parseArchive(pkgfile)
		if err != nil {
			log.Fatalln(err)
		}

		cartfscfgEntry := ar.OpenEntry("cartfscfg")
		if cartfscfgEntry == nil {
			pkgfile.Close()
			continue
		}
		cartfscfgJSON, err := io.ReadAll(cartfscfgEntry)
		if err != nil {
			log.Fatalln("read cartfscfg:", err)
		}
		symbolNames := make(map[string]string)
		if err := json.Unmarshal(cartfscfgJSON, &symbolNames); err != nil {
			log.Fatalln("parse cartfscfg:", err)
		}

		for cartfsName, symbol := range symbolNames {
			_, err = elf.Symbol(symbol)
			if err == errNoSymbol {
				continue // dead symbol
			} else if err != nil {
				log.Fatalln(err)
			}

			pad()
			offsets[symbol] = uint32(images.Len())

			image := ar.OpenEntry(cartfsName)
			if image == nil {
				log.Fatalln("missing archive entry:", cartfsName)
			}
			if _, err := io.Copy(images, image); err != nil {
				log.Fatalln(err)
			}
			pad()
		}
		pkgfile.Close()
	}

	return images, offsets
}

// postLink collects the cartfs images generated at compile time and appends
// them to the output elf in a new ".cartfs" section. The cartfs symbols are
// then patched to hold the pi bus address their image will have in the final
// ROM.
func postLink() {
	if *linkPrintVersion != "" {
		return
	}

	elfFile, err := os.OpenFile(*linkOutfilePath, os.O_RDWR, 0666)
	if err != nil {
		log.Fatalln("open elf:", err)
	}
	defer elfFile.Close()
	elfImage, err := readElf64(elfFile)
	if err != nil {
		log.Fatalln("read elf:", err)
	}

	images, offsets := collectImages(*linkImportcfgPath, elfImage)

	sectionAddr := elfImage.AddProgSection(".cartfs", cartfs.Align, images.Bytes())
	cartfsBase := romBase + uint32(sectionAddr)

	for symbol, offset := range offsets {
		if err := elfImage.SetSymbol(symbol, cartfsBase+offset); err != nil {
			log.Fatalln(err)
		}
	}

	if err := elfFile.Truncate(0); err != nil {
		log.Fatalln(err)
	}
	if err := elfImage.Write(elfFile); err != nil {
		log.Fatalln(err)
	}
}

var compileArgs = flag.NewFlagSet("compile", flag.ContinueOnError)
var (
	compilePrintVersion = compileArgs.String("V", "", "")
	compileOutfilePath  = compileArgs.String("o", "", "")
	compileImportPath   = compileArgs.String("p", "", "")
	compileEmbedcfgPath = compileArgs.String("embedcfg", "", "")
)

var compileIgnoredBoolFlags = []string{
	"%", "+", "B", "C", "E", "K", "L", "N", "S", "W", "asan", "clobberdead",
	"clobberdeadreg", "complete", "dwarf", "dwarfbasentries",
	"dwarflocationlists", "dynlink", "e", "errorurl", "h", "j", "l",
	"linkshared", "live", "m", "msan", "nolocalimports", "pack", "r",
	"race", "shared", "smallframes", "std", "t", "v", "w", "wb",
}

var compileIgnoredFlags = []string{
	"D", "I", "asmhdr", "bench", "blockprofile", "buildid", "c",
	"coveragecfg", "cpuprofile", "d", "env", "gendwarfinl", "goversion",
	"importcfg", "installsuffix", "json", "lang", "linkobj", "memprofile",
	"memprofilerate", "mutexprofile", "pgoprofile", "spectre", "symabis",
	"traceprofile", "trimpath",
}

func init() {
	for _, name := range compileIgnoredBoolFlags {
		compileArgs.Var(&boolFlag{}, name, "")
	}
	for _, name := range compileIgnoredFlags {
		compileArgs.String(name, "", "")
	}
}

func preCompile(args []string) []string {
	compileArgs.SetOutput(io.Discard)
	if err := compileArgs.Parse(args); err != nil {
		log.Fatalln("gcflags:", err)
	}

	if *compilePrintVersion != "" {
		// TODO modify version based on this binaries buildid to
		// invalidate caches if the tool has changed
		return args
	}

	return args
}

// postCompile scans the compiled package for cartfs.Embed() declarations and
// generates their cartfs images. The images are appended to the package
// archive written by the compiler, which makes the go tool cache them
// together with the package.
func postCompile() {
	if *compilePrintVersion != "" {
		return
	}
	if *compileEmbedcfgPath == "" {
		return
	}

	embedcfgJSON, err := os.ReadFile(*compileEmbedcfgPath)
	if err != nil {
		log.Fatalln("read embedcfg:", err)
	}
	var embedcfg embedConfig
	if err := json.Unmarshal(embedcfgJSON, &embedcfg); err != nil {
		log.Fatalln("parse embedcfg:", err)
	}

	cartfsDecls, err := scanCartfsEmbed(compileArgs.Args(), *compileImportPath)
	if err != nil {
		log.Fatalln("scan declarations:", err)
	}
	if len(cartfsDecls) == 0 {
		return
	}

	file, err := os.OpenFile(*compileOutfilePath, os.O_RDWR, 0666)
	if err != nil {
		log.Fatalln("open archive:", err)
	}
	defer file.Close()

	ar, err := parseArchive(file)
	if err != nil {
		log.Fatalln("parse archive:", err)
	}

	symbolNames := make(map[string]string)
	for i, decl := range cartfsDecls {
		cartfsFile, err := os.CreateTemp("", "cartfs")
		if err != nil {
			log.Fatalln("create tempfile:", err)
		}

		if err := cartfsCreate(cartfsFile, embedcfg, decl.Patterns); err != nil {
			log.Fatalln("create cartfs:", err)
		}

		cartfsName := "cartfs" + strconv.Itoa(i)
		if err := ar.AddEntry(cartfsName, cartfsFile); err != nil {
			log.Fatalln("append archive entry:", err)
		}
		symbolNames[cartfsName] = decl.SymbolName()

		cartfsFile.Close()
		os.Remove(cartfsFile.Name())
	}

	// Write a cartfscfg for the linker
	cartfscfgJSON, err := json.Marshal(symbolNames)
	if err != nil {
		log.Fatalln("serialize cartfscfg:", err)
	}
	if err := ar.AddEntry("cartfscfg", bytes.NewReader(cartfscfgJSON)); err != nil {
		log.Fatalln("append archive entry:", err)
	}
}

// embedConfig mirrors the compiler's -embedcfg file: Patterns maps each
// //go:embed pattern to the files it matched, Files maps those to their paths
// on disk.
type embedConfig struct {
	Patterns map[string][]string
	Files    map[string]string
}

func cartfsCreate(dev io.WriterAt, embedcfg embedConfig, patterns []string) error {
	files := make(map[string]string)
	for _, pattern := range patterns {
		for _, file := range embedcfg.Patterns[pattern] {
			files[file] = embedcfg.Files[file]
		}
	}
	return cartfs.Create(dev, files)
}
