package filter

import (
	"kinfilter/pkg/logger"
)

// Progress receives batch-evaluation progress: Begin once with the number of
// records of the filtered kind, Step once per record examined, End once.
type Progress interface {
	Begin(title, message string, total int)
	Step()
	End()
}

// LogProgress reports progress through the structured logger every Every steps.
type LogProgress struct {
	Log   *logger.Logger
	Every int

	title string
	total int
	done  int
}

// NewLogProgress creates a logger-backed progress reporter.
func NewLogProgress(log *logger.Logger, every int) *LogProgress {
	if every <= 0 {
		every = 1000
	}
	return &LogProgress{Log: log, Every: every}
}

// Begin logs the start of a run and resets the step count.
func (p *LogProgress) Begin(title, message string, total int) {
	p.title, p.total, p.done = title, total, 0
	p.Log.Infow(message, "title", title, "total", total)
}

// Step counts one examined record and logs every Every steps.
func (p *LogProgress) Step() {
	p.done++
	if p.done%p.Every == 0 {
		p.Log.Infow("progress", "title", p.title, "done", p.done, "total", p.total)
	}
}

// End logs the final count.
func (p *LogProgress) End() {
	p.Log.Infow("done", "title", p.title, "examined", p.done, "total", p.total)
}

// Done returns the number of steps reported so far.
func (p *LogProgress) Done() int {
	return p.done
}
