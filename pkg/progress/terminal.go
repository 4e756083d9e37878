package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/peratx/mpt-get/pkg/status"
)

// Terminal redraws a "received/total [>>>><<<<]" line in place.
type Terminal struct {
	line *status.Line
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{line: status.NewLine(w)}
}

func Render(step int, received, total int64) string {
	Check(step)

	return fmt.Sprintf("%d/%d [%s%s]",
		received, total,
		strings.Repeat(">", step),
		strings.Repeat("<", MaxSteps-step))
}

func (t *Terminal) Ready() {
	t.line.Reserve()
}

func (t *Terminal) Update(step int, received, total int64) {
	t.line.Redraw(Render(step, received, total))
}
