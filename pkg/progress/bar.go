package progress

import (
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

// Bar renders progress with a byte counting progress bar.
type Bar struct {
	w    io.Writer
	desc string
	max  int64
	bar  *pb.ProgressBar
}

func NewBar(w io.Writer, desc string) *Bar {
	return &Bar{w: w, desc: desc}
}

func (b *Bar) Ready() {
	b.max = -1
	b.bar = pb.NewOptions64(
		b.max,
		pb.OptionSetDescription(b.desc),
		pb.OptionSetWriter(b.w),
		pb.OptionSetWidth(MaxSteps),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowBytes(true),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(b.w, "\n")
		}),
		pb.OptionSpinnerType(14),
	)
	b.bar.RenderBlank()
}

func (b *Bar) Update(step int, received, total int64) {
	Check(step)

	if b.bar == nil {
		return
	}

	if total > 0 && total != b.max {
		b.max = total
		b.bar.ChangeMax64(total)
	}

	b.bar.Set64(received)
}
