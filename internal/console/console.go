// Package console is the line-oriented terminal boundary of the machine.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Display writes whole lines. Detail lines are only written when verbose.
type Display struct {
	w       io.Writer
	verbose bool
}

func NewDisplay(w io.Writer, verbose bool) *Display {
	return &Display{w: w, verbose: verbose}
}

// Line emits one line of text.
func (d *Display) Line(text string) {
	fmt.Fprintln(d.w, text)
}

// Detail emits a line only in verbose mode.
func (d *Display) Detail(text string) {
	if d.verbose {
		d.Line(text)
	}
}

// Input reads one line per prompt. Lines have no length limit.
type Input struct {
	r *bufio.Reader
	w io.Writer
}

// NewInput reads from r and writes prompts to w.
func NewInput(r io.Reader, w io.Writer) *Input {
	return &Input{r: bufio.NewReader(r), w: w}
}

// ReadLine writes the prompt and blocks for the next line, without its line
// ending. A final line without a newline is still returned; io.EOF follows
// once the reader is exhausted.
func (in *Input) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(in.w, prompt)
	}
	line, err := in.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
