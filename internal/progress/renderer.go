package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const barWidth = 20

// Renderer draws a single-line progress bar from an Aggregator subscription.
type Renderer struct {
	out      io.Writer
	interval time.Duration

	startedAt time.Time
	last      Snapshot
	lastBytes uint64

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewRenderer(out io.Writer, interval time.Duration) *Renderer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Renderer{
		out:      out,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start consumes snapshots from agg until Stop is called.
func (r *Renderer) Start(agg *Aggregator) {
	updates, cancel := agg.Subscribe()
	r.startedAt = time.Now()

	go func() {
		defer close(r.done)
		defer cancel()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case s, ok := <-updates:
				if !ok {
					return
				}
				r.last = s
			case <-ticker.C:
				delta := r.last.BytesCompleted - min(r.lastBytes, r.last.BytesCompleted)
				r.lastBytes = r.last.BytesCompleted
				speed := float64(delta) / r.interval.Seconds()
				fmt.Fprint(r.out, r.line(r.last, speed, false))
			case <-r.stop:
				// Pick up anything published after the last tick.
				select {
				case s, ok := <-updates:
					if ok {
						r.last = s
					}
				default:
				}
				fmt.Fprint(r.out, r.line(r.last, 0, true)+"\n")
				return
			}
		}
	}()
}

// Stop prints the final line and waits for the render loop to exit.
func (r *Renderer) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Renderer) line(s Snapshot, bytesPerSec float64, final bool) string {
	percent := s.Percent()
	elapsed := time.Since(r.startedAt)

	completedWidth := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", completedWidth)
	if completedWidth < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-completedWidth-1)
	}

	speedLabel := "Speed"
	timeLabel := "ETA"
	etaStr := "calc..."

	if final {
		speedLabel = "Avg"
		timeLabel = "Time"
		etaStr = elapsed.Truncate(time.Second).String()

		seconds := elapsed.Seconds()
		if seconds < 0.1 {
			seconds = 0.1
		}
		bytesPerSec = float64(s.BytesCompleted) / seconds
	} else if avg := float64(s.BytesCompleted) / elapsed.Seconds(); avg > 0 && s.BytesTotal >= s.BytesCompleted {
		etaSeconds := int(float64(s.BytesTotal-s.BytesCompleted) / avg)
		etaStr = (time.Duration(etaSeconds) * time.Second).String()
	}

	return fmt.Sprintf("\r[%s] %5.1f%% | %s: %8s/s | %s: %-7s | %d/%d files | %s/%s      ",
		bar, percent,
		speedLabel, humanize.IBytes(uint64(bytesPerSec)),
		timeLabel, etaStr,
		s.FilesCompleted, s.FilesTotal,
		humanize.IBytes(s.BytesCompleted), humanize.IBytes(s.BytesTotal))
}
