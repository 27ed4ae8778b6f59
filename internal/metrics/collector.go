// Package metrics provides a lightweight, Prometheus-compatible metrics
// collector. It outputs text/plain in Prometheus exposition format without
// requiring the heavy prometheus/client_golang dependency.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates counters and gauges and renders them on demand. A
// collector is created per process and passed to whoever needs it; there is
// no package-level instance.
type Collector struct {
	counters  sync.Map // name{labels} -> *Counter
	gauges    sync.Map // name{labels} -> *Gauge
	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Counter returns or creates a counter with the given name and label set.
func (c *Collector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

// Gauge returns or creates a gauge with the given name and label set.
func (c *Collector) Gauge(name, help, labels string) *Gauge {
	key := name + "{" + labels + "}"
	if v, ok := c.gauges.Load(key); ok {
		return v.(*Gauge)
	}
	g := &Gauge{name: name, help: help, labels: labels}
	actual, _ := c.gauges.LoadOrStore(key, g)
	return actual.(*Gauge)
}

// Handler returns an http.HandlerFunc that renders metrics in Prometheus
// text format.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		fmt.Fprint(w, c.render())
	}
}

func (c *Collector) render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# HELP orchestrator_uptime_seconds Time since start in seconds\n")
	fmt.Fprintf(&sb, "# TYPE orchestrator_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "orchestrator_uptime_seconds %d\n\n", int64(c.Uptime().Seconds()))

	type line struct{ name, text string }
	var lines []line
	helpKind := map[string]string{}
	helpText := map[string]string{}

	c.counters.Range(func(_, value any) bool {
		ctr := value.(*Counter)
		helpKind[ctr.name] = "counter"
		helpText[ctr.name] = ctr.help
		if ctr.labels != "" {
			lines = append(lines, line{ctr.name, fmt.Sprintf("%s{%s} %d\n", ctr.name, ctr.labels, ctr.Value())})
		} else {
			lines = append(lines, line{ctr.name, fmt.Sprintf("%s %d\n", ctr.name, ctr.Value())})
		}
		return true
	})
	c.gauges.Range(func(_, value any) bool {
		g := value.(*Gauge)
		helpKind[g.name] = "gauge"
		helpText[g.name] = g.help
		if g.labels != "" {
			lines = append(lines, line{g.name, fmt.Sprintf("%s{%s} %d\n", g.name, g.labels, g.Value())})
		} else {
			lines = append(lines, line{g.name, fmt.Sprintf("%s %d\n", g.name, g.Value())})
		}
		return true
	})

	// sync.Map iteration order is random; sort for a stable exposition.
	sort.Slice(lines, func(i, j int) bool { return lines[i].text < lines[j].text })

	written := map[string]bool{}
	for _, ln := range lines {
		if !written[ln.name] {
			fmt.Fprintf(&sb, "# HELP %s %s\n", ln.name, helpText[ln.name])
			fmt.Fprintf(&sb, "# TYPE %s %s\n", ln.name, helpKind[ln.name])
			written[ln.name] = true
		}
		sb.WriteString(ln.text)
	}
	return sb.String()
}
