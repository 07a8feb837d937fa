package output

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// ProgressBar renders a terminal progress bar during scans
type ProgressBar struct {
	writer io.Writer
	bar    *pb.ProgressBar
}

// NewProgressBar creates a progress bar writing to writer
func NewProgressBar(writer io.Writer) *ProgressBar {
	return &ProgressBar{writer: writer}
}

// Start begins the bar for the given file total
func (p *ProgressBar) Start(total int) {
	p.bar = pb.New(total)
	p.bar.SetWriter(p.writer)
	p.bar.Set(pb.Bytes, false)
	p.bar.Start()
}

// Increment advances the bar by one file
func (p *ProgressBar) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Finish completes and removes the bar
func (p *ProgressBar) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
