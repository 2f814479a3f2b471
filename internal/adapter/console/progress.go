package console

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	defaultRedrawInterval = 200 * time.Millisecond

	progressBarWidth     = 30
	maxNameDisplayLength = 40
	bytesPerMB           = 1024 * 1024
)

type progressBar struct {
	console *Console
	name    string

	total    int64
	current  int64
	started  time.Time
	lastDraw time.Time
}

func (p *progressBar) Reset(total int64) {
	if total <= 0 {
		total = -1
	}

	p.total = total
	p.current = 0
	p.started = p.console.now()
	p.lastDraw = time.Time{}

	p.draw(false)
}

func (p *progressBar) Advance(n int64) {
	p.current += n

	if p.console.now().Sub(p.lastDraw) >= p.console.redrawInterval {
		p.draw(false)
	}
}

func (p *progressBar) Done() {
	if p.started.IsZero() {
		p.started = p.console.now()
	}

	if p.total < 0 {
		p.total = p.current
	}

	p.draw(true)
}

func (p *progressBar) draw(final bool) {
	p.lastDraw = p.console.now()
	line := p.String()

	p.console.mu.Lock()
	defer p.console.mu.Unlock()

	end := ""
	if final {
		end = "\n"
	}

	fmt.Fprintf(p.console.out, "\r%s%s", line, end)
}

// String renders "name [=====>    ]  42.00% ( 1.20 MB / 3.00 MB) @ 850.00 KB/s".
// The percentage is left out while the total size is unknown.
func (p *progressBar) String() string {
	name := shorten(p.name, maxNameDisplayLength)
	speed := formatSpeed(p.speed())
	currentMB := float64(p.current) / bytesPerMB

	if p.total <= 0 {
		return fmt.Sprintf("%-*s [%s] (%6.2f MB / unknown) @ %s", maxNameDisplayLength, name, strings.Repeat("?", progressBarWidth), currentMB, speed)
	}

	percentage := math.Min(100, math.Max(0, float64(p.current)/float64(p.total)*100))
	filled := int(math.Round(progressBarWidth * percentage / 100))

	bar := strings.Repeat("=", filled)
	if filled < progressBarWidth {
		bar += ">" + strings.Repeat(" ", progressBarWidth-filled-1)
	}

	return fmt.Sprintf("%-*s [%s] %6.2f%% (%6.2f MB / %.2f MB) @ %s",
		maxNameDisplayLength, name, bar, percentage, currentMB, float64(p.total)/bytesPerMB, speed)
}

func (p *progressBar) speed() float64 {
	elapsed := p.console.now().Sub(p.started).Seconds()
	if p.started.IsZero() || elapsed <= 0 {
		return -1
	}

	return float64(p.current) / elapsed
}

func formatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		return "--- B/s"
	}

	if bytesPerSecond < 1024 {
		return fmt.Sprintf("%6.2f B/s", bytesPerSecond)
	}

	kbps := bytesPerSecond / 1024
	if kbps < 1024 {
		return fmt.Sprintf("%6.2f KB/s", kbps)
	}

	return fmt.Sprintf("%6.2f MB/s", kbps/1024)
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-3]) + "..."
}
