package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/hosts"
)

const (
	gnmapHost5 = "Host: 10.0.0.5 (host5.local)\tPorts: 22/open/tcp//ssh///, 80/open/tcp//http///, 443/closed/tcp//https///"
	gnmapHost6 = "Host: 10.0.0.6 ()\tPorts: 8080/open/tcp//http-proxy///"
)

func TestGnmap(t *testing.T) {
	reg := hosts.NewRegistry()
	stats, err := Gnmap(reg, []string{
		"# Nmap 7.94 scan initiated",
		"Host: 10.0.0.5 (host5.local)\tStatus: Up",
		gnmapHost5,
		gnmapHost6,
		"# Nmap done",
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Skipped: 3}, stats)

	rec, ok := reg.Get("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, "host5.local", rec.ReverseDNS)
	assert.Equal(t, []string{"22", "80"}, rec.Ports)
	assert.Equal(t, []string{"ssh", "http"}, rec.Services)
	assert.Empty(t, rec.Domains)

	rec, ok = reg.Get("10.0.0.6")
	require.True(t, ok)
	assert.Equal(t, hosts.EmptyReverseDNS, rec.ReverseDNS)
	assert.Equal(t, []string{"8080"}, rec.Ports)
}

func TestGnmapDistinctServices(t *testing.T) {
	reg := hosts.NewRegistry()
	_, err := Gnmap(reg, []string{
		"Host: 10.0.0.7 ()\tPorts: 80/open/tcp//http///, 8000/open/tcp//http///, 9000/open/tcp/////",
	})
	require.NoError(t, err)

	rec, ok := reg.Get("10.0.0.7")
	require.True(t, ok)
	assert.Equal(t, []string{"80", "8000", "9000"}, rec.Ports)
	assert.Equal(t, []string{"http"}, rec.Services)
}

func TestGnmapLastScanWins(t *testing.T) {
	reg := hosts.NewRegistry()
	_, err := Gnmap(reg, []string{
		"Host: 10.0.0.5 (host5.local)\tPorts: 22/open/tcp//ssh///",
		"Host: 10.0.0.5 (host5.local)\tPorts: 443/open/tcp//https///",
	})
	require.NoError(t, err)

	rec, ok := reg.Get("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, []string{"443"}, rec.Ports)
	assert.Equal(t, []string{"https"}, rec.Services)
	assert.Equal(t, 1, reg.Len())
}

func TestGnmapKeepsDomains(t *testing.T) {
	reg := hosts.NewRegistry()
	reg.Put(&hosts.Record{Key: "10.0.0.5", Domains: []string{"a.example.com"}, Ports: []string{"1"}})

	_, err := Gnmap(reg, []string{gnmapHost5})
	require.NoError(t, err)

	rec, ok := reg.Get("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, []string{"a.example.com"}, rec.Domains)
	assert.Equal(t, []string{"22", "80"}, rec.Ports)
}

func TestGnmapOnlyClosedOnLine(t *testing.T) {
	// "/open/" can appear outside the state field.
	reg := hosts.NewRegistry()
	stats, err := Gnmap(reg, []string{
		"Host: 10.0.0.9 ()\tPorts: 25/closed/tcp//smtp//x/open/",
	})
	require.Error(t, err, "nine slash fields is malformed")
	assert.Zero(t, stats.Processed)

	stats, err = Gnmap(reg, []string{
		"Host: 10.0.0.9 ()\tPorts: 25/closed/tcp//smtp/open//",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.False(t, reg.Has("10.0.0.9"))
}

func TestGnmapMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "no tab section", line: "Host: 10.0.0.5 () Ports: 22/open/tcp//ssh///"},
		{name: "short host section", line: "Host: 10.0.0.5\tPorts: 22/open/tcp//ssh///"},
		{name: "truncated ports section", line: "Host: 10.0.0.5 ()\t/open/"},
		{name: "descriptor field count", line: "Host: 10.0.0.5 ()\tPorts: 22/open/tcp//ssh//"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := hosts.NewRegistry()
			_, err := Gnmap(reg, []string{tt.line})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeScanFormat))
			assert.True(t, errors.IsFatal(err))
			assert.Zero(t, reg.Len())
		})
	}
}
