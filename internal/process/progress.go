package process

import "sync/atomic"

// Progress is the percentage of the running job that is done, 0 to 100.
// It reads 0 when no job is running.
type Progress struct {
	pct atomic.Int64
}

func (p *Progress) Value() float64 {
	return float64(p.pct.Load())
}

func (p *Progress) set(done, total int) {
	if total <= 0 {
		p.pct.Store(0)
		return
	}
	p.pct.Store(int64(done * 100 / total))
}

func (p *Progress) reset() {
	p.pct.Store(0)
}
