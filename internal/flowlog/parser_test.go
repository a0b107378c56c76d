package flowlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowlog-tagger/internal/protocols"
)

const acceptedLine = "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK"

func TestParseAcceptedLine(t *testing.T) {
	p := NewParser(protocols.Default)

	rec, reason := p.Parse(acceptedLine)
	require.Equal(t, ReasonAccepted, reason)

	assert.Equal(t, Record{
		Version:      "2",
		AccountID:    "123456789012",
		InterfaceID:  "eni-0a1b2c3d",
		SrcAddr:      "10.0.1.201",
		DstAddr:      "198.51.100.2",
		SrcPort:      "443",
		DstPort:      "49153",
		Protocol:     "6",
		Packets:      "25",
		Bytes:        "20000",
		Start:        "1620140761",
		End:          "1620140821",
		Action:       "ACCEPT",
		LogStatus:    "OK",
		ProtocolName: "tcp",
	}, rec)
}

func TestParseTrimsSurroundingWhitespace(t *testing.T) {
	p := NewParser(protocols.Default)

	_, reason := p.Parse("  \t" + acceptedLine + " \r\n")
	assert.Equal(t, ReasonAccepted, reason)
}

func TestParseReasons(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Reason
	}{
		{"empty", "", ReasonMalformed},
		{"blank", "   ", ReasonMalformed},
		{"too few fields", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 ACCEPT OK", ReasonMalformed},
		{"trailing token", acceptedLine + " EXTRA", ReasonMalformed},
		{"non numeric port", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 https 6 25 20000 1620140761 1620140821 ACCEPT OK", ReasonMalformed},
		{"ipv6 address", "2 123456789012 eni-0a1b2c3d 2001:db8::1 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK", ReasonMalformed},
		{"nodata dashes", "2 123456789012 eni-0a1b2c3d - - - - - - - 1620140761 1620140821 - NODATA", ReasonMalformed},
		{"double space", "2  123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK", ReasonMalformed},
		{"version 1", "1 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK", ReasonVersion},
		{"version 02", "02 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK", ReasonVersion},
		{"unknown protocol", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 999 25 20000 1620140761 1620140821 ACCEPT OK", ReasonProtocol},
		{"reject", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 REJECT OK", ReasonAction},
		{"lowercase accept", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 accept OK", ReasonAction},
		{"nodata status", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT NODATA", ReasonStatus},
		{"skipdata status", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT SKIPDATA", ReasonStatus},
		{"udp accepted", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 5353 53 17 1 80 1620140761 1620140821 ACCEPT OK", ReasonAccepted},
		{"icmp accepted", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 0 0 1 1 84 1620140761 1620140821 ACCEPT OK", ReasonAccepted},
	}

	p := NewParser(protocols.Default)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := p.Parse(tt.line)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestParseCheckOrder(t *testing.T) {
	p := NewParser(protocols.Default)

	// Everything after the layout is wrong; the version check must win.
	_, reason := p.Parse("3 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 999 25 20000 1620140761 1620140821 REJECT NODATA")
	assert.Equal(t, ReasonVersion, reason)

	_, reason = p.Parse("2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 999 25 20000 1620140761 1620140821 REJECT NODATA")
	assert.Equal(t, ReasonProtocol, reason)

	_, reason = p.Parse("2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 REJECT NODATA")
	assert.Equal(t, ReasonAction, reason)
}

type fakeProtocols map[string]string

func (f fakeProtocols) Lookup(number string) (string, bool) {
	name, ok := f[number]
	return name, ok
}

func TestParseUsesGivenProtocolTable(t *testing.T) {
	p := NewParser(fakeProtocols{"17": "udp"})

	rec, reason := p.Parse(acceptedLine)
	assert.Equal(t, ReasonProtocol, reason)
	assert.Empty(t, rec.ProtocolName)
}

func TestParseResolvesProtocolName(t *testing.T) {
	p := NewParser(fakeProtocols{"6": "TCP-custom", "17": "udp"})

	rec, reason := p.Parse(acceptedLine)
	require.Equal(t, ReasonAccepted, reason)
	assert.Equal(t, "TCP-custom", rec.ProtocolName)

	// The name is resolved before the action and status checks run.
	rec, reason = p.Parse("2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 5353 53 17 1 80 1620140761 1620140821 REJECT OK")
	assert.Equal(t, ReasonAction, reason)
	assert.Equal(t, "udp", rec.ProtocolName)
}

func TestReasonString(t *testing.T) {
	var names []string
	for _, r := range SkipReasons {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{"malformed", "version", "protocol", "action", "status"}, names)
	assert.Equal(t, "accepted", ReasonAccepted.String())
	assert.Equal(t, "unknown", Reason(42).String())
}
