package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace for all recnotes metrics
const namespace = "recnotes"

var helpText = map[string]string{
	IngestLinesTotal:  "Input lines seen per source, by result (processed or skipped).",
	NotesWrittenTotal: "Note files written to the content folder.",
	NoteErrorsTotal:   "Note files that could not be written.",
	RegistryHosts:     "Host records in the registry when emission started.",
	ResolvedHosts:     "Hosts looked up by the resolver, by result.",
}

// Collector exposes a snapshot of a Registry as Prometheus metrics.
type Collector struct {
	source *Registry
}

// NewCollector wraps a Registry for use with a prometheus.Registerer.
func NewCollector(r *Registry) *Collector {
	return &Collector{source: r}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.source.GetMetrics()

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := snapshot[k]
		names, values := splitLabels(m.Labels)

		help := helpText[m.Name]
		if help == "" {
			help = m.Name
		}
		desc := prometheus.NewDesc(prometheus.BuildFQName(namespace, "", m.Name), help, names, nil)

		valueType := prometheus.CounterValue
		if m.Type == TypeGauge {
			valueType = prometheus.GaugeValue
		}
		ch <- prometheus.MustNewConstMetric(desc, valueType, m.Value, values...)
	}
}

func splitLabels(labels Labels) (names, values []string) {
	names = make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	values = make([]string, len(names))
	for i, k := range names {
		values[i] = labels[k]
	}
	return names, values
}

// WriteTextfile writes the registry in Prometheus text exposition format to
// path, atomically, for node_exporter's textfile collector.
func WriteTextfile(r *Registry, path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(r)); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
