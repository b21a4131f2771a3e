package asset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxLineSize = 1 << 20

// line is one significant directive line of a stream.
type line struct {
	num     int
	text    string
	keyword string
	args    []string
	// rest is the text after the keyword, for directives taking a name.
	rest string
}

// scanLines calls fn for every non-blank, non-comment line. The first error
// returned by fn stops the scan.
func scanLines(stream string, r io.Reader, fn func(l line) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}

		fields := strings.Fields(trimmed)
		l := line{
			num:     n,
			text:    text,
			keyword: fields[0],
			args:    fields[1:],
			rest:    strings.TrimSpace(trimmed[len(fields[0]):]),
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s stream: %w", stream, err)
	}
	return nil
}

func (l line) fail(stream string, err error) *LoadError {
	return &LoadError{Stream: stream, Line: l.num, Text: l.text, Err: err}
}

// floats parses the first n arguments. Extra arguments are ignored.
func (l line) floats(n int) ([]float32, error) {
	if len(l.args) < n {
		return nil, fmt.Errorf("%w: %s needs %d values, got %d", ErrMalformedDirective, l.keyword, n, len(l.args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(l.args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q", ErrMalformedDirective, l.keyword, l.args[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
