package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/regolith-labs/ore-cli-sub000/hashengine"
)

const clearLine = "\r\033[K"

// progressLine is a single status line on stderr that is rewritten in place.
// Log output clears it first so the two never interleave on one line.
type progressLine struct {
	mtx    sync.Mutex
	out    io.Writer
	active bool
}

var progress = &progressLine{out: os.Stderr}

func (p *progressLine) update(format string, args ...interface{}) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	fmt.Fprintf(p.out, clearLine+format, args...)
	p.active = true
}

func (p *progressLine) clear() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.active {
		fmt.Fprint(p.out, clearLine)
		p.active = false
	}
}

// finish replaces the line with a final message.
func (p *progressLine) finish(format string, args ...interface{}) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	fmt.Fprintf(p.out, clearLine+format+"\n", args...)
	p.active = false
}

// fail replaces the line with an error.
func (p *progressLine) fail(err error) {
	p.finish("ERROR %v", err)
}

// searchProgress renders engine progress.
func (p *progressLine) searchProgress(pr hashengine.Progress) {
	p.update("Mining... %s, best difficulty %d, %v elapsed",
		formatHashRate(pr.HashRate()), pr.BestDifficulty, pr.Elapsed.Truncate(1e9))
}

// formatHashRate formats a hash rate with a unit prefix.
func formatHashRate(rate float64) string {
	units := []string{"H/s", "KH/s", "MH/s", "GH/s"}
	i := 0
	for rate >= 1000 && i < len(units)-1 {
		rate /= 1000
		i++
	}
	return fmt.Sprintf("%.2f %s", rate, units[i])
}
