package tickdata

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVSource streams ticks line by line from a columnar text reader without
// loading the file into memory. It is single-pass: once consumed it cannot
// be restarted.
type CSVSource struct {
	format     Format
	scanner    *bufio.Scanner
	closer     io.Closer
	skipHeader bool
}

// NewCSVSource wraps an already-open reader. The caller's closer (if any) is
// not managed; use OpenCSVFile for file-backed sources.
func NewCSVSource(r io.Reader, f Format) *CSVSource {
	return newCSVSource(r, nil, f)
}

// OpenCSVFile opens a tick data file for streaming. The file is closed by
// Close on every exit path of the consuming run.
func OpenCSVFile(path string, f Format) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return newCSVSource(file, file, f), nil
}

func newCSVSource(r io.Reader, closer io.Closer, f Format) *CSVSource {
	f = f.withDefaults()
	if dec := decoderFor(f.Encoding); dec != nil {
		r = transform.NewReader(r, dec)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &CSVSource{
		format:     f,
		scanner:    sc,
		closer:     closer,
		skipHeader: f.HasHeader,
	}
}

// Next returns the next valid tick, io.EOF at end of input. Blank and
// malformed lines are skipped, not surfaced.
func (s *CSVSource) Next() (Tick, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if s.skipHeader {
			s.skipHeader = false
			continue
		}
		if line == "" {
			continue
		}
		if tick, ok := parseLine(line, s.format); ok {
			return tick, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return Tick{}, err
	}
	return Tick{}, io.EOF
}

func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func decoderFor(name string) *encoding.Decoder {
	switch strings.ToLower(name) {
	case "gbk":
		return simplifiedchinese.GBK.NewDecoder()
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder()
	default:
		return nil
	}
}
