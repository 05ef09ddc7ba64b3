package seqbank

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress wraps schollz/progressbar with an opt-out flag.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(enabled bool, total int, description string) *progress {
	if !enabled {
		return &progress{bar: nil}
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionThrottle(250 * time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	}

	var bar *progressbar.ProgressBar
	if total > 0 {
		opts = append(opts,
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(true),
		)
		bar = progressbar.NewOptions(total, opts...)
	} else {
		opts = append(opts, progressbar.OptionSpinnerType(14))
		bar = progressbar.NewOptions(-1, opts...)
	}

	return &progress{bar: bar}
}

func (p *progress) increment() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
