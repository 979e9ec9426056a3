package viz

import (
	"fmt"
	"io"
)

// Progress is a pe.Observer that redraws a bar on w as the march advances.
type Progress struct {
	w     io.Writer
	total int
	width int
	last  int
}

func NewProgress(w io.Writer, total, width int) *Progress {
	return &Progress{w: w, total: total, width: width, last: -1}
}

func (p *Progress) OnStep(step int, dist float64) {
	if p.total <= 0 {
		return
	}
	pct := int(100 * step / p.total)
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.w, "\r%s %3d%%  %6.1f km", ProgressBar(float64(step)/float64(p.total), p.width), pct, dist/1000)
	if step >= p.total {
		fmt.Fprintln(p.w)
	}
}
