package crawler

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// ReadIdentifiers returns a single-pass sequence over the lines of r, one
// identifier per line. Only the trailing "\n" is removed; anything else,
// including "\r", stays part of the identifier. A final line without newline
// is still yielded.
//
// The returned func reports the read error that ended iteration early, if any.
func ReadIdentifiers(r io.Reader) (iter.Seq[string], func() error) {
	var readErr error
	br := bufio.NewReader(r)

	seq := func(yield func(string) bool) {
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if !yield(strings.TrimSuffix(line, "\n")) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
		}
	}

	return seq, func() error { return readErr }
}
