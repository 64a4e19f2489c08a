package resolve

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/recnotes/internal/errors"
)

// startTestServer serves a tiny zone on a random local UDP port.
func startTestServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		switch req.Question[0].Name {
		case "a.example.com.":
			cname, _ := dns.NewRR("a.example.com. 60 IN CNAME edge.example.net.")
			a, _ := dns.NewRR("edge.example.net. 60 IN A 10.0.0.5")
			m.Answer = append(m.Answer, cname, a)
		case "empty.example.com.":
		default:
			m.SetRcode(req, dns.RcodeNameError)
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSResolverLookupA(t *testing.T) {
	r := NewDNSResolver(startTestServer(t), 2*time.Second)
	ctx := context.Background()

	ip, err := r.LookupA(ctx, "a.example.com")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)

	_, err = r.LookupA(ctx, "missing.example.com")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeResolveFailed))
	assert.Contains(t, err.Error(), "NXDOMAIN")

	_, err = r.LookupA(ctx, "empty.example.com")
	assert.True(t, errors.IsCode(err, errors.CodeResolveFailed))
}

func TestDNSResolverIPLiteral(t *testing.T) {
	r := NewDNSResolver("127.0.0.1:1", time.Millisecond)
	ip, err := r.LookupA(context.Background(), "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", ip)
}

func TestNewDNSResolverDefaultServer(t *testing.T) {
	r := NewDNSResolver("", time.Second)
	assert.NotEmpty(t, r.Server())

	r = NewDNSResolver("9.9.9.9:53", time.Second)
	assert.Equal(t, "9.9.9.9:53", r.Server())
}
