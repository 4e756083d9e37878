package progress

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// MaxSteps is the upper bound of the discrete progress range.
const MaxSteps = 20

// Observer receives download progress. Ready fires once before any bytes
// are transferred, Update once per received chunk with step in
// [0, MaxSteps]. A step outside that range is a programming error and
// observers panic on it.
type Observer interface {
	Ready()
	Update(step int, received, total int64)
}

// Step maps received bytes onto [0, MaxSteps]. An unknown total (<= 0)
// reports 0.
func Step(received, total int64) int {
	if total <= 0 {
		return 0
	}

	return int(received * MaxSteps / total)
}

func Check(step int) {
	if step < 0 || step > MaxSteps {
		panic(fmt.Sprintf("progress step %d outside of [0, %d]", step, MaxSteps))
	}
}

type Nop struct{}

func (Nop) Ready() {}

func (Nop) Update(step int, received, total int64) {
	Check(step)
}

// Detect picks the Terminal observer when f is a terminal and Nop otherwise.
func Detect(f *os.File) Observer {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewTerminal(f)
	}

	return Nop{}
}

type obsKey struct{}

func Open(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, obsKey{}, o)
}

func From(ctx context.Context) Observer {
	v := ctx.Value(obsKey{})
	if v == nil {
		return Nop{}
	}

	return v.(Observer)
}
