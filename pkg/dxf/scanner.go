package dxf

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/geofold/dxfgeo/pkg/errors"
)

// DefaultMemoryCeiling bounds how many bytes a single parse may read.
// Exceeding it is a fatal RESOURCE_LIMIT error, never silent truncation.
const DefaultMemoryCeiling = 512 << 20 // 512 MiB

// Scanner reads a DXF tag stream from an io.Reader.
//
// Next advances to the next (code, value) pair and reports whether one was
// read. A value line that cannot be paired with an integer code line is
// skipped rather than failing the stream. After Next returns false, Err
// reports the terminal error, if any.
type Scanner struct {
	reader    *bufio.Reader
	tag       Tag
	err       error
	bytesRead int64
	ceiling   int64

	// skippedCodeLines counts lines that failed integer parsing where a
	// group code was expected.
	skippedCodeLines int
}

// NewScanner creates a scanner with the default memory ceiling.
func NewScanner(r io.Reader) *Scanner {
	return NewScannerLimit(r, DefaultMemoryCeiling)
}

// NewScannerLimit creates a scanner that aborts with a RESOURCE_LIMIT
// error once more than ceiling bytes have been consumed. A ceiling of 0
// or less disables the check.
func NewScannerLimit(r io.Reader, ceiling int64) *Scanner {
	return &Scanner{
		reader:  bufio.NewReaderSize(r, 64<<10),
		ceiling: ceiling,
	}
}

// Tag returns the pair read by the most recent successful Next.
func (s *Scanner) Tag() Tag {
	return s.tag
}

// Err returns the first error encountered, or nil on clean EOF.
func (s *Scanner) Err() error {
	return s.err
}

// SkippedCodeLines reports how many malformed code lines were skipped.
func (s *Scanner) SkippedCodeLines() int {
	return s.skippedCodeLines
}

// Next reads the next tag pair. Malformed code lines are skipped; the
// scanner stops only at EOF, a read error, or the memory ceiling.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		codeLine, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			return false
		}

		codeStr := strings.TrimSpace(codeLine)
		if codeStr == "" {
			continue
		}

		code, err := strconv.Atoi(codeStr)
		if err != nil {
			// Not an integer where a group code belongs. Drop the line
			// and resynchronize on the next one.
			s.skippedCodeLines++
			continue
		}

		valueLine, err := s.readLine()
		if err != nil {
			// A code without its value line is an incomplete pair.
			if err != io.EOF {
				s.err = err
			}
			return false
		}

		// Trailing CR/LF goes; leading spaces in values are significant
		// per the DXF reference.
		s.tag = Tag{Code: code, Value: strings.TrimRight(valueLine, "\r\n")}
		return true
	}
}

func (s *Scanner) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	s.bytesRead += int64(len(line))
	if s.ceiling > 0 && s.bytesRead > s.ceiling {
		s.err = errors.New(errors.ErrCodeResourceLimit,
			"input exceeds memory ceiling of %d bytes", s.ceiling)
		return "", s.err
	}
	if err != nil && line != "" && err == io.EOF {
		// Final line without a newline still counts.
		return line, nil
	}
	return line, err
}

// DecodeCodepage translates raw bytes written in the drawing's declared
// codepage ($DWGCODEPAGE) into UTF-8. Unknown or absent codepages return
// the input unchanged; modern files are UTF-8 already.
func DecodeCodepage(raw []byte, codepage string) ([]byte, error) {
	cm := charmapFor(codepage)
	if cm == nil {
		return raw, nil
	}
	return cm.NewDecoder().Bytes(raw)
}

func charmapFor(codepage string) *charmap.Charmap {
	switch strings.ToUpper(strings.TrimSpace(codepage)) {
	case "ANSI_1250":
		return charmap.Windows1250
	case "ANSI_1251":
		return charmap.Windows1251
	case "ANSI_1252":
		return charmap.Windows1252
	case "ANSI_1253":
		return charmap.Windows1253
	case "ANSI_1254":
		return charmap.Windows1254
	case "ANSI_1257":
		return charmap.Windows1257
	default:
		return nil
	}
}
