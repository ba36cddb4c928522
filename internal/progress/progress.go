package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

const (
	progressBarWidth    = 40
	progressBarThrottle = 65 * 1000000
)

// NewBar creates a byte progress bar on stderr. A size of zero or below renders a spinner.
func NewBar(description string, size int64) *progressbar.ProgressBar {
	return newBar(os.Stderr, description, size)
}

func newBar(w io.Writer, description string, size int64) *progressbar.ProgressBar {
	// progressbar refuses to finish a bar whose max is 0.
	if size == 0 {
		size = -1
	}
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionThrottle(progressBarThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Copy copies src to dst while advancing a bar of the given size.
func Copy(dst io.Writer, src io.Reader, description string, size int64) (int64, error) {
	return copyWith(NewBar(description, size), dst, src)
}

func copyWith(bar *progressbar.ProgressBar, dst io.Writer, src io.Reader) (int64, error) {
	n, err := io.Copy(io.MultiWriter(dst, bar), src)
	if err != nil {
		return n, fmt.Errorf("copy: %w", err)
	}
	if err := bar.Finish(); err != nil {
		return n, fmt.Errorf("finish progress: %w", err)
	}
	return n, nil
}
