package pakfs

// TODO add tests for file system with multiple banks

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"
)

const lorem = `Lorem ipsum dolor sit amet, consectetur adipisici elit, sed
eiusmod tempor incidunt ut labore et dolore magna aliqua. Ut enim ad
minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquid
ex ea commodi consequat. Quis aute iure reprehenderit in voluptate velit
esse cillum dolore eu fugiat nulla pariatur. Excepteur sint obcaecat
cupiditat non proident, sunt in culpa qui officia deserunt mollit anim
id est laborum.`

// pakImage is an in-memory controller pak.
type pakImage []byte

func (p pakImage) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(p)) {
		return 0, io.EOF
	}
	n := copy(b, p[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (p pakImage) WriteAt(b []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(p)) {
		return 0, io.ErrShortWrite
	}
	n := copy(p[off:], b)
	if n < len(b) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func fill(size int) []byte {
	b := make([]byte, size)
	for n := 0; n < size; {
		n += copy(b[n:], lorem)
	}
	return b
}

// testImage builds a pak image with three notes, mimicking a pak used by a
// few games.
func testImage(t *testing.T) pakImage {
	t.Helper()

	img := make(pakImage, 128*pageSize)
	pfs, err := Format(img)
	if err != nil {
		t.Fatal("format:", err)
	}

	files := []struct {
		name string
		size int
	}{
		{"MARIO64.SAV", 7168},
		{"WAVERACE", 7168},
		{"V64, \"TEST\"", 256},
	}
	for _, v := range files {
		f, err := pfs.Create(v.name)
		if err != nil {
			t.Fatal("create:", err)
		}
		if _, err := f.WriteAt(fill(v.size), 0); err != nil {
			t.Fatal("write:", err)
		}
	}

	return img
}

func damaged(t *testing.T, flipBytes []int) pakImage {
	img := testImage(t)
	for _, v := range flipBytes {
		img[v] = ^img[v]
	}
	return img
}

func TestRead(t *testing.T) {
	tests := map[string]struct {
		data io.ReaderAt
		err  error
	}{
		"/dev/null":       {make(pakImage, 128*pageSize), ErrInconsistent},
		"valid":           {damaged(t, []int{}), nil},
		"damageId":        {damaged(t, []int{0x20}), nil},
		"damageIdBak1":    {damaged(t, []int{0x20, 0x60}), nil},
		"damageIdBak12":   {damaged(t, []int{0x20, 0x60, 0x80}), nil},
		"damageIdAll":     {damaged(t, []int{0x20, 0x60, 0x80, 0xc0}), ErrInconsistent},
		"damageInodes":    {damaged(t, []int{0x1ff}), nil},
		"damageInodesBak": {damaged(t, []int{0x1ff, 0x2ff}), ErrInconsistent},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(tc.data)
			if err != tc.err {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestReadDir(t *testing.T) {
	tests := map[string][]struct {
		n   int
		err error
	}{
		"Full":      {{0, nil}},
		"Single":    {{1, nil}, {1, nil}, {1, io.EOF}},
		"Multi":     {{2, nil}, {1, io.EOF}},
		"Exceed":    {{2, nil}, {2, io.EOF}},
		"Mixed1":    {{2, nil}, {0, nil}},
		"Mixed2":    {{0, nil}, {2, io.EOF}},
		"FullMulti": {{0, nil}, {0, nil}},
	}

	pfs, err := Read(testImage(t))
	if err != nil {
		t.Fatal("damaged testdata:", err)
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			fi, _ := pfs.Open(".")
			dir, _ := fi.(*rootDir)
			for i, call := range tc {
				entries, err := dir.ReadDir(call.n)
				if err != call.err {
					t.Fatalf("expected %v, got %v (i=%v)", call.err, err, i)
				}
				if err == nil && call.n > 0 {
					if len(entries) != call.n {
						t.Fatalf("expected %d entries, got %d (i=%v)", call.n, len(entries), i)
					}
				}
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	tests := map[string]struct {
		name string
		size int64
	}{
		"Mario":    {"MARIO64.SAV", 7168},
		"WaveRace": {"WAVERACE", 7168},
		"Quoted":   {"V64, \"TEST\"", 256},
	}

	pfs, err := Read(testImage(t))
	if err != nil {
		t.Fatal("damaged testdata:", err)
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			file, err := pfs.Open(tc.name)
			if err != nil {
				t.Fatal(err)
			}
			stat, err := file.Stat()
			if err != nil {
				t.Fatal("stat:", err)
			}
			if stat.Size() != tc.size {
				t.Fatalf("expected %v, got %v", tc.size, stat.Size())
			}
			filedata, err := io.ReadAll(file)
			if err != nil {
				t.Fatal("read:", err)
			}
			if !bytes.Equal(filedata, fill(int(tc.size))) {
				t.Fatal("content mismatch")
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	tests := map[string]struct {
		name   string
		data   []byte
		offset int64
		err    error
	}{
		"Noop":       {"MARIO64.SAV", []byte(""), 0, nil},
		"NoopEOF":    {"MARIO64.SAV", []byte(""), 9999, nil},
		"Short1":     {"MARIO64.SAV", []byte("foo"), 0, nil},
		"Short2":     {"MARIO64.SAV", []byte("foo"), 256, nil},
		"Short3":     {"MARIO64.SAV", []byte("foo"), 600, nil},
		"Short4":     {"MARIO64.SAV", []byte("foo"), 7168, nil},
		"ShortEOF":   {"MARIO64.SAV", []byte("foo"), 7421, nil},
		"Long1":      {"WAVERACE", []byte(lorem), 100, nil},
		"Long2":      {"WAVERACE", []byte(lorem), 7068, nil},
		"LongEOF":    {"V64, \"TEST\"", []byte(lorem), 300, nil},
		"ErrNoSpace": {"V64, \"TEST\"", []byte(lorem), 1000000, ErrNoSpace},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			pfs, err := Read(testImage(t))
			if err != nil {
				t.Fatal("damaged testdata:", err)
			}

			fi, err := pfs.Open(tc.name)
			if err != nil {
				t.Fatal(err)
			}
			f, _ := fi.(*File)
			oldSize := f.Size()

			n, err := f.WriteAt(tc.data, tc.offset)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if err != nil {
				return
			}
			if n != len(tc.data) {
				t.Fatalf("expected %v written, got %v", len(tc.data), n)
			}
			if len(tc.data) > 0 {
				expectedSize := max(oldSize, tc.offset+int64(len(tc.data)))
				expectedSize = (expectedSize + pageMask) &^ pageMask
				if f.Size() != expectedSize {
					t.Fatalf("filesize: expected %v, got %v", expectedSize, f.Size())
				}
			} else {
				if oldSize != f.Size() {
					t.Fatalf("filesize changed on empty write: old %v new %v", oldSize, f.Size())
				}
			}
			buf := make([]byte, n)
			_, err = f.ReadAt(buf, tc.offset)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf, tc.data) {
				t.Fatalf("read unexpected data:\nexpected %q\ngot %q", tc.data, buf)
			}

			// Newly allocated bytes not written must be zeroed
			end := tc.offset + int64(len(tc.data))
			for _, gap := range [...]struct{ size, offset int64 }{
				{tc.offset - oldSize, oldSize},
				{pageSize - end&pageMask, end},
			} {
				if gap.size > 0 && gap.offset > oldSize {
					buf := make([]byte, gap.size)
					zeroes := make([]byte, gap.size)
					_, err = f.ReadAt(buf, gap.offset)
					if err != nil && err != io.EOF {
						t.Fatal(err)
					}
					if !bytes.Equal(buf, zeroes) {
						t.Errorf("gap not zeroed: %v\n%q", gap, buf)
					}
				}
			}
		})
	}
}

func TestCreateFile(t *testing.T) {
	tests := map[string]struct {
		name string
		err  error
	}{
		"ErrExist1":          {"MARIO64.SAV", fs.ErrExist},
		"ErrExist2":          {"WAVERACE", fs.ErrExist},
		"ErrExist3":          {"V64, \"TEST\"", fs.ErrExist},
		"Simple":             {"SIMPLE.TXT", nil},
		"NoExtension":        {"NOEXT", nil},
		"NoExtension2":       {"NOEXT2.", nil},
		"OnlyExtension":      {".EXT", nil},
		"DotInName":          {"DOT.IN.NAME", nil},
		"NoNullTerm":         {"NONULLTERMINATOR", nil},
		"NoNullTermExt":      {"NO.NULL", nil},
		"ErrNameTooLongName": {"VERYLONGFILENAME!", ErrNameTooLong},
		"ErrNameTooLongExt":  {"NAME.EXTEN", ErrNameTooLong},
		"ErrNotExist":        {"ISDIR/FILE", fs.ErrNotExist},
	}

	img := testImage(t)

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			pfs, err := Read(img)
			if err != nil {
				t.Fatal("damaged testdata:", err)
			}
			freeBefore := pfs.Free()
			numFiles := len(pfs.ReadDirRoot())

			f, err := pfs.Create(tc.name)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}

			if err == nil {
				numFiles += 1
			}
			if len(pfs.ReadDirRoot()) != numFiles {
				t.Fatalf("expected %v files, got %v", numFiles, len(pfs.ReadDirRoot()))
			}
			if pfs.Free() != freeBefore {
				t.Fatalf("free disk space changed")
			}

			if err != nil {
				return
			}
			if f.Name() != tc.name {
				t.Fatalf("expected filename '%v', got '%v'", tc.name, f.Name())
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	tests := map[string]struct {
		name string
		err  error
	}{
		"Root":         {".", nil},
		"Ok1":          {"MARIO64.SAV", nil},
		"Ok2":          {"WAVERACE", nil},
		"Ok3":          {"V64, \"TEST\"", nil},
		"ErrNotExist1": {"MARIO64", os.ErrNotExist},
		"ErrNotExist2": {"WAVERACE ", os.ErrNotExist},
		"ErrNotExist3": {"waverace", os.ErrNotExist},
		"ErrNotExist4": {"WAVERACE.", os.ErrNotExist},
		"ErrInvalid1":  {"", fs.ErrInvalid},
		"ErrInvalid2":  {"./WAVERACE", fs.ErrInvalid},
		"ErrInvalid3":  {"/WAVERACE", fs.ErrInvalid},
	}

	pfs, err := Read(testImage(t))
	if err != nil {
		t.Fatal("damaged testdata:", err)
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pfs.Open(tc.name)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestRemoveFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		err      error
	}{
		{"Root", ".", 0, ErrIsDir},
		{"ErrNotExist1", "NOTEXIST", 0, os.ErrNotExist},
		{"Ok1", "MARIO64.SAV", 7168, nil},
		{"Ok2", "WAVERACE", 7168, nil},
		{"Ok3", "V64, \"TEST\"", 256, nil},
	}

	img := testImage(t)

	var pfs *FS
	var free int64
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			pfs, err = Read(img)
			if err != nil {
				t.Fatal("damaged testdata:", err)
			}
			numFiles := len(pfs.ReadDirRoot())
			free = pfs.Free()

			err = pfs.Remove(tc.filename)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if err == nil {
				numFiles -= 1
				free += tc.size
			}
			if len(pfs.ReadDirRoot()) != numFiles {
				t.Fatalf("expected %v files, got %v", numFiles, len(pfs.ReadDirRoot()))
			}
			if pfs.Free() != free {
				t.Fatalf("expected %v free bytes, got %v", free, pfs.Free())
			}
		})
	}

	size := pfs.Size()
	if size != free {
		t.Fatalf("expected empty filesystem, got free=%v size=%v", free, size)
	}
}

func TestRenameFile(t *testing.T) {
	pfs, err := Read(testImage(t))
	if err != nil {
		t.Fatal("damaged testdata:", err)
	}

	if err := pfs.Rename("WAVERACE", "MARIO64.SAV"); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}
	if err := pfs.Rename("NOTEXIST", "NEWNAME"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if err := pfs.Rename("WAVERACE", "WAVE64.SAV"); err != nil {
		t.Fatal(err)
	}
	if _, err := pfs.Open("WAVERACE"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("old name still exists")
	}
	fi, err := pfs.Open("WAVE64.SAV")
	if err != nil {
		t.Fatal(err)
	}
	f, _ := fi.(*File)
	if f.Size() != 7168 {
		t.Fatalf("rename changed size: %v", f.Size())
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, fill(7168)) {
		t.Fatal("rename changed content")
	}
}

func TestTruncateFile(t *testing.T) {
	tests := map[string]struct {
		name string
		size int64
		err  error
	}{
		"Root":        {".", 0, ErrIsDir},
		"ErrNotExist": {"NOTEXIST", 0, os.ErrNotExist},
		"ErrInvalid1": {"NOTEXIST", -1, fs.ErrInvalid},
		"ErrInvalid2": {"MARIO64.SAV", -1, fs.ErrInvalid},
		"ErrNoSpace":  {"MARIO64.SAV", 7168 + 16896 + 512, ErrNoSpace},
		"Noop":        {"MARIO64.SAV", 7168, nil},
		"Clear1":      {"MARIO64.SAV", 7167, nil},
		"Clear2":      {"MARIO64.SAV", 6913, nil},
		"Zero":        {"MARIO64.SAV", 0, nil},
		"Grow":        {"V64, \"TEST\"", 257, nil},
		"Shrink1":     {"WAVERACE", 6912, nil},
		"Shrink2":     {"WAVERACE", 1337, nil},
		"Create":      {"NEWFILE", 1000, nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			img := testImage(t)
			pfs, err := Read(img)
			if err != nil {
				t.Fatal("damaged testdata:", err)
			}
			free := pfs.Free()

			fi, _ := pfs.Open(tc.name)
			if strings.HasPrefix(name, "Create") {
				fi, _ = pfs.Create(tc.name)
			}
			f, _ := fi.(*File)
			var oldSize int64

			if tc.err == nil {
				oldSize = f.Size()
			}

			err = pfs.Truncate(tc.name, tc.size)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}

			pfs, err = Read(img)
			if err != nil {
				t.Fatal("damaged testdata:", err)
			}
			fi, _ = pfs.Open(tc.name)
			f, _ = fi.(*File)

			if tc.err == nil {
				expectedSize := (tc.size + pageMask) &^ pageMask
				if f.Size() != expectedSize {
					t.Fatalf("expected size %v, got %v", expectedSize, f.Size())
				}
				delta := f.Size() - oldSize
				free -= delta

				// Check if new bytes are zeroed
				if delta > 0 {
					buf := make([]byte, delta)
					zeroes := make([]byte, delta)
					_, err := f.ReadAt(buf, f.Size()-delta)
					if err != nil && err != io.EOF {
						t.Fatal(err)
					}
					if !bytes.Equal(buf, zeroes) {
						t.Fatal("new pages contain data")
					}
				}

				// Check for zeroes after truncated size
				buf := make([]byte, f.Size()-tc.size)
				zeroes := make([]byte, len(buf))
				_, err := f.ReadAt(buf, tc.size)
				if err != nil && err != io.EOF {
					t.Fatal(err)
				}
				if !bytes.Equal(buf, zeroes) {
					t.Fatal("data after truncated size")
				}
			}
			if pfs.Free() != free {
				t.Fatalf("expected %v free bytes, got %v", free, pfs.Free())
			}
		})
	}
}

func TestFormat(t *testing.T) {
	img := testImage(t)
	pfs, err := Format(img)
	if err != nil {
		t.Fatal(err)
	}

	if len(pfs.ReadDirRoot()) != 0 {
		t.Error("format left files behind")
	}
	if pfs.Free() != pfs.Size() {
		t.Errorf("expected empty filesystem, got free=%v size=%v", pfs.Free(), pfs.Size())
	}

	// survives a reread
	pfs, err = Read(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(pfs.ReadDirRoot()) != 0 {
		t.Error("files reappeared after reread")
	}
}
