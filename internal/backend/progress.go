package backend

import "io"

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent int)

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	onStep ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil || total <= 0 {
		return r
	}
	fn(0)
	return &progressReader{r: r, total: total, last: 0, onStep: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.onStep(pct)
	}
	return n, err
}
