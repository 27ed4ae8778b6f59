package metrics

import "fmt"

// Pipeline exposes the message-flow counters the channel manager and
// websocket hub report into. It satisfies the manager's Observer interface.
type Pipeline struct {
	collector *Collector
}

func NewPipeline(c *Collector) *Pipeline {
	return &Pipeline{collector: c}
}

func (p *Pipeline) Collector() *Collector { return p.collector }

// MessageProcessed counts one pipeline run, labeled by channel and outcome.
func (p *Pipeline) MessageProcessed(channel string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	labels := fmt.Sprintf(`channel=%q,outcome=%q`, channel, outcome)
	p.collector.Counter("orchestrator_messages_total", "Total messages processed", labels).Inc()
}

// ReplySent counts one delivered reply, labeled by channel.
func (p *Pipeline) ReplySent(channel string) {
	labels := fmt.Sprintf(`channel=%q`, channel)
	p.collector.Counter("orchestrator_replies_sent_total", "Total replies delivered", labels).Inc()
}

// WSConnections tracks live websocket clients.
func (p *Pipeline) WSConnections() *Gauge {
	return p.collector.Gauge("orchestrator_ws_connections", "Current websocket connections", "")
}
