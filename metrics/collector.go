package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by the plugin manager.
const (
	PluginLoads        = "plugin_loads_total"
	PluginLoadFailures = "plugin_load_failures_total"
	PluginUnloads      = "plugin_unloads_total"
	PluginUnloadErrors = "plugin_unload_errors_total"
	PluginTransitions  = "plugin_transitions_total"
	HooksRegistered    = "hooks_registered"
	HookRollbacks      = "hook_rollbacks_total"
)

// Metric is one labelled series.
type Metric struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// Collector keeps counters and gauges in memory.
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
	}
}

// IncCounter adds one to a counter.
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter adds value to a counter.
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series(name, "counter", labels).Value += value
}

// SetGauge sets a gauge.
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series(name, "gauge", labels).Value = value
}

// series returns the metric for name+labels, creating it. Caller holds mu.
func (c *Collector) series(name, kind string, labels map[string]string) *Metric {
	key := buildKey(name, labels)
	m, exists := c.metrics[key]
	if !exists {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		m = &Metric{Name: name, Type: kind, Labels: copied}
		c.metrics[key] = m
	}
	m.Timestamp = time.Now().Unix()
	return m
}

// Value returns the current value of a series, zero if absent.
func (c *Collector) Value(name string, labels map[string]string) float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, exists := c.metrics[buildKey(name, labels)]; exists {
		return m.Value
	}
	return 0
}

// Snapshot returns copies of all series sorted by key.
func (c *Collector) Snapshot() []Metric {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.metrics))
	for k := range c.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *c.metrics[k])
	}
	return out
}

// Reset drops every series.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// buildKey renders name{k=v,...} with labels in sorted order.
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}
