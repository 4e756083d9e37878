package ui

import (
	"bytes"
	"context"
	"io"
	"os"
)

// Sink is where user facing output goes.
type Sink interface {
	Info() io.Writer
	Err() io.Writer
}

type stdio struct{}

func (stdio) Info() io.Writer { return os.Stdout }
func (stdio) Err() io.Writer  { return os.Stderr }

func Stdio() Sink {
	return stdio{}
}

// Buffer captures output, mostly for tests.
type Buffer struct {
	InfoBuf bytes.Buffer
	ErrBuf  bytes.Buffer
}

func (b *Buffer) Info() io.Writer { return &b.InfoBuf }
func (b *Buffer) Err() io.Writer  { return &b.ErrBuf }

type discard struct{}

func (discard) Info() io.Writer { return io.Discard }
func (discard) Err() io.Writer  { return io.Discard }

func Discard() Sink {
	return discard{}
}

type uiMarker struct{}

func With(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, uiMarker{}, s)
}

func Get(ctx context.Context) Sink {
	v := ctx.Value(uiMarker{})
	if v == nil {
		return Stdio()
	}

	return v.(Sink)
}
