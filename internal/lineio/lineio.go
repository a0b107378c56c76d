// Package lineio reads text inputs one line at a time.
//
// A line ends at "\n", "\r\n" or a lone "\r", so files written with any of
// the three conventions split the same way. The final line does not need a
// terminator.
package lineio

import (
	"bufio"
	"bytes"
	"io"
	"math"
)

const initialBufSize = 64 * 1024

// NewScanner returns a Scanner over r that splits with ScanLines. Lines are
// not length limited; the buffer grows to fit the longest one.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBufSize), math.MaxInt)
	sc.Split(ScanLines)
	return sc
}

// ScanLines is a bufio.SplitFunc returning each line without its terminator.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	default:
		// "\r" at the end of the buffer; wait to see if "\n" follows.
		return 0, nil, nil
	}
}
