package status

import (
	"io"

	"github.com/morikuni/aec"
)

// Line is a single terminal line that is redrawn in place. Reserve records
// the cursor position, Redraw returns to it and replaces the line.
type Line struct {
	output   io.Writer
	reserved bool
}

func NewLine(w io.Writer) *Line {
	return &Line{output: w}
}

func (l *Line) Reserve() error {
	_, err := io.WriteString(l.output, aec.Save.String())
	if err != nil {
		return err
	}

	l.reserved = true
	return nil
}

func (l *Line) Redraw(text string) error {
	reset := aec.EmptyBuilder.
		With(aec.Restore, aec.EraseLine(aec.EraseModes.All)).
		ANSI

	if !l.reserved {
		reset = aec.EraseLine(aec.EraseModes.All).With(aec.Column(0))
	}

	_, err := io.WriteString(l.output, reset.String()+text)
	return err
}
