package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// renderSnapshot транслирует снапшоты сессии в терминальный индикатор.
func renderSnapshot(bar *progressBar) func(models.ProgressSnapshot) {
	return func(s models.ProgressSnapshot) {
		switch s.State {
		case models.StateError:
			bar.Fail(errors.New(s.Err))
		case models.StateCompleted:
			if !s.Dismissed {
				bar.Finish()
			}
		case models.StatePaused:
			bar.SetCurrent(s.UploadedBytes, " (paused)")
		default:
			bar.SetCurrent(s.UploadedBytes, "")
		}
	}
}

// progressBar рисует ASCII-индикатор выполнения загрузки.
type progressBar struct {
	prefix        string
	total         int64
	current       int64
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func newProgressBar(prefix string, total int64) *progressBar {
	return &progressBar{
		prefix: prefix,
		total:  total,
	}
}

// SetCurrent выставляет абсолютное число загруженных байт.
func (p *progressBar) SetCurrent(n int64, suffix string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.current = n
	p.mu.Unlock()
	p.render(false, suffix)
}

func (p *progressBar) render(force bool, suffix string) {
	p.mu.Lock()
	if p.finished && !force {
		p.mu.Unlock()
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		p.mu.Unlock()
		return
	}

	line := p.lineLocked()
	prevWidth := p.lastLineWidth
	p.lastLineWidth = len(line) + len(suffix)
	p.lastRender = now
	p.mu.Unlock()

	padding := ""
	if prevWidth > len(line)+len(suffix) {
		padding = strings.Repeat(" ", prevWidth-len(line)-len(suffix))
	}
	fmt.Fprintf(os.Stdout, "\r%s%s%s", line, suffix, padding)
}

func (p *progressBar) lineLocked() string {
	var builder strings.Builder
	builder.Grow(len(p.prefix) + 64)
	builder.WriteString(p.prefix)
	builder.WriteByte(' ')

	if p.total > 0 {
		ratio := float64(p.current) / float64(p.total)
		if ratio > 1 {
			ratio = 1
		}
		filled := int(ratio*float64(progressBarWidth) + 0.5)
		if filled > progressBarWidth {
			filled = progressBarWidth
		}
		builder.WriteByte('[')
		builder.WriteString(strings.Repeat("=", filled))
		builder.WriteString(strings.Repeat(" ", progressBarWidth-filled))
		builder.WriteString("] ")
		builder.WriteString(fmt.Sprintf("%3d%% ", int(ratio*100+0.5)))
		builder.WriteString(humanBytes(p.current))
		builder.WriteByte('/')
		builder.WriteString(humanBytes(p.total))
	} else {
		builder.WriteString(humanBytes(p.current))
		builder.WriteString(" transferred")
	}

	return builder.String()
}

func (p *progressBar) Finish() {
	p.complete(true, nil)
}

func (p *progressBar) Fail(err error) {
	p.complete(false, err)
}

func (p *progressBar) complete(success bool, err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	if success {
		p.current = p.total
	}
	line := p.lineLocked()
	prevWidth := p.lastLineWidth
	p.lastLineWidth = len(line)
	p.mu.Unlock()

	suffix := " ✓"
	if !success {
		if err != nil {
			suffix = fmt.Sprintf(" ✗ %v", err)
		} else {
			suffix = " ✗"
		}
	}

	padding := ""
	if prevWidth > len(line)+len(suffix) {
		padding = strings.Repeat(" ", prevWidth-len(line)-len(suffix))
	}

	fmt.Fprintf(os.Stdout, "\r%s%s%s\n", line, suffix, padding)
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
