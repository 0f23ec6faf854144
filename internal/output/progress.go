package output

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// Progress reports scan status to stderr while results stream in.
// It is safe for use from concurrent domain workers.
type Progress struct {
	mu      sync.Mutex
	enabled bool
	start   time.Time
	total   int
	done    int
}

// NewProgress creates a Progress reporter for a batch of total
// domains. Set enabled=false for machine-readable stdout pipelines.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		enabled: enabled,
		start:   time.Now(),
		total:   total,
	}
}

// Domain records one finished domain.
func (p *Progress) Domain(result *model.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if !p.enabled {
		return
	}
	status := string(result.Status)
	if result.SkipReason != "" {
		status += " (" + result.SkipReason + ")"
	}
	p.logf("%d/%d %s: %s", p.done, p.total, result.Domain, status)
}

// Log prints a free-form progress message.
func (p *Progress) Log(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.logf(format, args...)
}

func (p *Progress) logf(format string, args ...interface{}) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Fprintf(os.Stderr, "[%s] %s\n", elapsed, fmt.Sprintf(format, args...))
}
