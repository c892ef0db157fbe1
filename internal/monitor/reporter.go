package monitor

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/process"
)

// Report is one periodic resource and health summary.
type Report struct {
	At         time.Time         `json:"at"`
	CPUPercent float64           `json:"cpuPercent"`
	RSSBytes   uint64            `json:"rssBytes"`
	Overall    Status            `json:"overall"`
	Components []ComponentStatus `json:"components"`
	Summary    string            `json:"summary,omitempty"`
}

// Reporter logs process resource usage and component health on a cron
// schedule. The polling loops are bounded by sleeps rather than busy waits;
// the CPU figure is how that is checked on a running board.
type Reporter struct {
	health  *Health
	proc    *process.Process
	summary func() string

	mu   sync.Mutex
	cron *cron.Cron
	last Report
}

// NewReporter returns a Reporter for the current process.
func NewReporter(h *Health) (*Reporter, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("inspecting own process: %w", err)
	}
	// Prime the CPU counter so the first report covers the interval since
	// startup rather than the process lifetime.
	_, _ = proc.Percent(0)
	return &Reporter{health: h, proc: proc}, nil
}

// SetSummary sets a callback whose result is appended to each report, e.g.
// sample counters.
func (r *Reporter) SetSummary(fn func() string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = fn
}

// Start schedules Report with a cron spec such as "@every 1m".
func (r *Reporter) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.Report() }); err != nil {
		return fmt.Errorf("health schedule %q: %w", schedule, err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	log.Printf("Health reporter scheduled (%s)", schedule)
	return nil
}

// Stop cancels the schedule and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Report gathers and logs a report immediately.
func (r *Reporter) Report() Report {
	rep := Report{
		At:         time.Now(),
		Overall:    r.health.Overall(),
		Components: r.health.Snapshot(),
	}
	if cpu, err := r.proc.Percent(0); err == nil {
		rep.CPUPercent = cpu
	}
	if mem, err := r.proc.MemoryInfo(); err == nil && mem != nil {
		rep.RSSBytes = mem.RSS
	}

	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()
	if summary != nil {
		rep.Summary = summary()
	}

	log.Printf("Health: %s cpu=%.1f%% rss=%.1fMiB %s %s",
		rep.Overall, rep.CPUPercent, float64(rep.RSSBytes)/(1<<20),
		formatComponents(rep.Components), rep.Summary)

	r.mu.Lock()
	r.last = rep
	r.mu.Unlock()
	return rep
}

// Last returns the most recent report.
func (r *Reporter) Last() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func formatComponents(cs []ComponentStatus) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.Component+"="+string(c.Status))
	}
	return strings.Join(parts, " ")
}
