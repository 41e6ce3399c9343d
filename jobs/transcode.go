package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

type (
	// Transcoder renders src into dst. It calls progress with the finished
	// fraction every now and then and stops with ErrAborted as soon as
	// progress returns false.
	Transcoder interface {
		Transcode(ctx context.Context, src, dst string, progress func(float64) bool) error
	}

	// CopyTranscoder copies the source file as is, Chunk bytes at a time. It
	// stands in for a real encoder where only the file handling matters.
	CopyTranscoder struct {
		Chunk int
	}
)

var ErrAborted = errors.New("job aborted")

func (c CopyTranscoder) Transcode(ctx context.Context, src, dst string, progress func(float64) bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	buf := make([]byte, max(c.Chunk, 1))
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(dst)
			return err
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				return fmt.Errorf("write %s: %w", dst, err)
			}
			done += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return fmt.Errorf("read %s: %w", src, rerr)
		}
		if info.Size() > 0 && !progress(float64(done)/float64(info.Size())) {
			out.Close()
			os.Remove(dst)
			return ErrAborted
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	progress(1)
	return nil
}
