package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/mgnsk/binfield"
	_ "github.com/mgnsk/binfield/parsers"
	"github.com/mgnsk/binfield/stream"
)

func main() {
	filePath := flag.String("file", "", "path to a file to parse")
	devicePath := flag.String("device", "", "path to a serial device to read from instead of -file")
	baudRate := flag.Int("baud", 115200, "serial device baud rate")
	formatID := flag.String("format", "", "force this registered parser id instead of sniffing")
	ext := flag.String("ext", "", "file extension hint used while sniffing")
	flag.Parse()

	if *filePath == "" && flag.NArg() > 0 {
		*filePath = flag.Arg(0)
	}
	if *filePath == "" && *devicePath == "" {
		log.Fatal("# missing file path argument, -file or -device\n")
	}

	st, closeFn, err := openSource(*filePath, *devicePath, *baudRate)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	var p *binfield.Parser
	if *formatID != "" {
		p, err = binfield.ByID(st, *formatID)
	} else {
		p, err = binfield.Sniff(st, *ext, "")
	}
	if err != nil {
		log.Fatal(err)
	}

	if ok, reason := p.Validate(); !ok {
		log.Fatalf("# validation failed: %s\n", reason)
	}

	fmt.Printf("# parsed as %q (%s)\n", p.TagsInfo().ID, p.CreateDescription())
	dump(p, "")

	if warnings := p.Warnings(); len(warnings) > 0 {
		fmt.Println("# warnings:")
		for _, w := range warnings {
			fmt.Printf("#   %s\n", w.String())
		}
	}
}

func dump(f binfield.Field, indent string) {
	display, err := f.HumanDisplay()
	if err != nil {
		fmt.Printf("%s%s = <error: %v>\n", indent, f.Name(), err)
	} else {
		fmt.Printf("%s%s = %s (size=%d bits)\n", indent, f.Name(), display, f.Size())
	}
	fs, ok := f.(binfield.FieldSet)
	if !ok {
		return
	}
	for i := 0; ; i++ {
		child, err := fs.ChildByIndex(i)
		if err != nil {
			if errors.Is(err, binfield.ErrFieldNotFound) {
				return
			}
			log.Fatalf("%s  <error: %v>\n", indent, err)
		}
		dump(child, indent+"  ")
	}
}

func openSource(filePath, devicePath string, baud int) (*stream.Stream, func() error, error) {
	if filePath != "" {
		st, err := stream.Open(filePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        devicePath,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
		Size:        8,
	})
	if err != nil {
		return nil, nil, err
	}
	src := newBufferedReaderAt(port)
	return stream.New(src, -1), port.Close, nil
}

// bufferedReaderAt adapts a sequential io.Reader (a serial port has no
// random access) into an io.ReaderAt by caching every byte read so far
// and pulling more from the underlying reader only when a request
// reaches past what's cached, mirroring the forward-mostly access
// pattern every field-tree traversal actually makes.
type bufferedReaderAt struct {
	mu  sync.Mutex
	r   io.Reader
	buf []byte
	err error
}

func newBufferedReaderAt(r io.Reader) *bufferedReaderAt {
	return &bufferedReaderAt{r: r}
}

func (b *bufferedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	need := off + int64(len(p))
	for int64(len(b.buf)) < need && b.err == nil {
		chunk := make([]byte, 4096)
		n, err := b.r.Read(chunk)
		b.buf = append(b.buf, chunk[:n]...)
		if err != nil {
			b.err = err
		}
	}
	if off >= int64(len(b.buf)) {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		if b.err != nil {
			return n, b.err
		}
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}
