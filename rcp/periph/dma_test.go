package periph_test

import (
	"bytes"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nkraut/n64/drivers/carts/isviewer"
	"github.com/nkraut/n64/rcp/cpu"
	"github.com/nkraut/n64/rcp/periph"
	n64testing "github.com/nkraut/n64/testing"
)

func TestMain(m *testing.M) { n64testing.TestMain(m) }

// Used as a reference implementation, should have the same behaviour as
// periph.Device.
type bytesReadWriter struct {
	bytes.Reader
	buf []byte
}

func newBytesReadWriter(b []byte) *bytesReadWriter {
	return &bytesReadWriter{
		Reader: *bytes.NewReader(b),
		buf:    b,
	}
}

func (b *bytesReadWriter) Write(p []byte) (n int, err error) {
	offset, err := b.Reader.Seek(0, io.SeekCurrent)
	n = copy(b.buf[offset:], p)
	if n < len(p) {
		err = io.ErrShortWrite
	}
	b.Reader.Seek(int64(n), io.SeekCurrent)
	return
}

// Use end of ISViewer buffer for testing
var dut = periph.NewDevice(0x13ff_fe00, 64)
var ref = newBytesReadWriter(make([]byte, 64, 64))
var initReader *bytes.Reader

func TestReadWriteSeeker(t *testing.T) {
	if isviewer.Probe() == nil {
		t.Skip("needs ISViewer")
	}

	var initBytes = make([]byte, 64, 64)
	for i := range initBytes {
		initBytes[i] = byte(i + 0x30)
	}
	initReader = bytes.NewReader(initBytes)

	var (
		even     = []byte("evenlenght")
		odd      = []byte("oddlenght")
		evenLong = []byte("text longer than a cacheline with even length.")
		oddLong  = []byte("text longer than a cacheline with odd length.")
	)

	// Define testcases
	tests := map[string]params{
		"noop":                {0, 0, io.SeekStart, []byte{}},
		"paddedEven":          {1, 0, io.SeekStart, cpu.CopyPaddedSlice(even)},
		"paddedOdd":           {1, 0, io.SeekStart, cpu.CopyPaddedSlice(odd)},
		"unpaddedEven":        {1, 0, io.SeekStart, even},
		"unpaddedOdd":         {1, 0, io.SeekStart, odd},
		"paddedEvenLong":      {1, 0, io.SeekStart, cpu.CopyPaddedSlice(evenLong)},
		"paddedOddLong":       {1, 0, io.SeekStart, cpu.CopyPaddedSlice(oddLong)},
		"unpaddedEvenLong":    {1, 0, io.SeekStart, evenLong},
		"unpaddedOddLong":     {1, 0, io.SeekStart, oddLong},
		"noCacheAlignEven":    {1, 0, io.SeekStart, cpu.CopyPaddedSlice(evenLong)[4:]},
		"noCacheAlignOdd":     {1, 0, io.SeekStart, cpu.CopyPaddedSlice(oddLong)[4:]},
		"noPIBusAlignEven":    {1, 0, io.SeekStart, cpu.CopyPaddedSlice(oddLong)[3:]},
		"noPIBusAlignOdd":     {1, 0, io.SeekStart, cpu.CopyPaddedSlice(evenLong)[3:]},
		"paddedEvenSeekPos":   {4, 1, io.SeekCurrent, cpu.CopyPaddedSlice(even)},
		"paddedOddSeekPos":    {4, 1, io.SeekCurrent, cpu.CopyPaddedSlice(odd)},
		"unpaddedEvenSeekPos": {4, 1, io.SeekCurrent, even},
		"unpaddedOddSeekPos":  {4, 1, io.SeekCurrent, odd},
		"paddedEvenSeekNeg":   {4, -1, io.SeekCurrent, cpu.CopyPaddedSlice(even)},
		"paddedOddSeekNeg":    {4, -1, io.SeekCurrent, cpu.CopyPaddedSlice(odd)},
		"unpaddedEvenSeekNeg": {4, -1, io.SeekCurrent, even},
		"unpaddedOddSeekNeg":  {4, -1, io.SeekCurrent, odd},
		"paddedEvenSeekEnd":   {4, -31, io.SeekEnd, cpu.CopyPaddedSlice(even)},
		"paddedOddSeekEnd":    {4, -31, io.SeekEnd, cpu.CopyPaddedSlice(odd)},
		"unpaddedEvenSeekEnd": {4, -31, io.SeekEnd, even},
		"unpaddedOddSeekEnd":  {4, -31, io.SeekEnd, odd},
		"eof":                 {4, -1, io.SeekEnd, cpu.CopyPaddedSlice(evenLong)},
		"eofnoop":             {4, 0, io.SeekEnd, cpu.CopyPaddedSlice(evenLong)},
	}

	// Run all testcases
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resultRef := testWriteSeeker(t, tc, ref)
			resultDut := testWriteSeeker(t, tc, dut)

			if bytes.Compare(resultRef.buf, resultDut.buf) != 0 {
				t.Error("write not equal")
				t.Log("Ref:", string(resultRef.buf))
				t.Log("Dut:", string(resultDut.buf))
			}

			resultRef = testReadSeeker(t, tc, ref)
			resultDut = testReadSeeker(t, tc, dut)

			if bytes.Compare(resultRef.buf, resultDut.buf) != 0 {
				t.Error("read not equal")
				t.Log("Ref:", string(resultRef.buf))
				t.Log("Dut:", string(resultDut.buf))
			}
		})
	}
}

type params struct {
	repeat int
	offset int64
	whence int
	data   []byte
}

func testWriteSeeker(t *testing.T, tc params, dut io.ReadWriteSeeker) *bytesReadWriter {
	initReader.Seek(0, io.SeekStart)
	dut.Seek(0, io.SeekStart)
	n, err := io.Copy(dut, initReader)
	if n != 64 || err != nil {
		t.Error("copy init:", err, n)
	}

	dut.Seek(0, io.SeekStart)
	for range tc.repeat {
		dut.Seek(tc.offset, tc.whence)
		dut.Write(tc.data)
	}

	result := newBytesReadWriter(make([]byte, 64, 64))
	dut.Seek(0, io.SeekStart)
	n, err = io.Copy(result, dut)
	if n != 64 || err != nil {
		t.Error("copy result:", err, n)
	}

	return result
}

func testReadSeeker(t *testing.T, tc params, dut io.ReadWriteSeeker) *bytesReadWriter {
	initReader.Seek(0, io.SeekStart)
	dut.Seek(0, io.SeekStart)
	n, err := io.Copy(dut, initReader)
	if n != 64 || err != nil {
		t.Error("copy init:", err, n)
	}

	result := newBytesReadWriter(make([]byte, 64, 64))

	dut.Seek(0, io.SeekStart)
	for range tc.repeat {
		dut.Seek(tc.offset, tc.whence)
		dut.Read(tc.data)
		result.Write(tc.data)
	}

	return result
}

const lorem = `Lorem ipsum dolor sit amet, consectetur adipisici elit, sed
eiusmod tempor incidunt ut labore et dolore magna aliqua. Ut enim ad
minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquid
ex ea commodi consequat. Quis aute iure reprehenderit in voluptate velit
esse cillum dolore eu fugiat nulla pariatur. Excepteur sint obcaecat
cupiditat non proident, sunt in culpa qui officia deserunt mollit anim
id est laborum.`

func TestConcurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	if isviewer.Probe() == nil {
		t.Skip("needs ISViewer")
	}

	const devSize = 1024
	devs := [...]*periph.Device{
		periph.NewDevice(0x13fffc00, devSize),
		periph.NewDevice(0x13fff800, devSize),
		periph.NewDevice(0x13fff400, devSize),
		periph.NewDevice(0x13fff000, devSize),
	}

	var wg sync.WaitGroup
	for _, dev := range devs {
		dev := dev
		wg.Add(1)
		go func() {
			timer := time.NewTimer(5 * time.Second)
			exit := false
			for !exit {
				offset := int64(rand.Intn(devSize - len(lorem)))
				_, err := dev.WriteAt([]byte(lorem), offset)
				if err != nil {
					t.Error(err)
				}
				buf := make([]byte, len(lorem))
				_, err = dev.ReadAt(buf, offset)
				if err != nil {
					t.Error(err)
				}
				if !bytes.Equal(buf, []byte(lorem)) {
					t.Error("read unexpected data")
				}

				select {
				case <-timer.C:
					exit = true
				default:
				}
			}
			wg.Done()
		}()
	}
	wg.Wait()
}
