package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/telltaleatheist/clippy-sub006/internal/analysis"
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter redraws one status line on a terminal and prints one line
// per phase change otherwise.
type progressPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	live      bool
	lastPhase string
	width     int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, live: isTerminal(out)}
}

func (p *progressPrinter) callback() analysis.ProgressFunc {
	return func(phase string, percent float64, message string) {
		p.mu.Lock()
		defer p.mu.Unlock()
		line := fmt.Sprintf("[%3.0f%%] %s", percent, message)
		if !p.live {
			if phase != p.lastPhase || phase == analysis.PhaseFailed {
				fmt.Fprintln(p.out, line)
			}
			p.lastPhase = phase
			return
		}
		pad := ""
		if n := len([]rune(line)); n < p.width {
			pad = strings.Repeat(" ", p.width-n)
		}
		fmt.Fprintf(p.out, "\r%s%s", line, pad)
		p.width = len([]rune(line))
		p.lastPhase = phase
	}
}

// finish terminates the live line.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.width > 0 {
		fmt.Fprintln(p.out)
		p.width = 0
	}
}
