package flowlog

import (
	"regexp"
	"strings"
)

// linePattern matches a whole version 2 record. The interface id is matched
// loosely and the address fields only need to look like dotted decimals.
//
// Submatches: 1 version, 2 account, 3 interface, 4 srcaddr, 5 dstaddr,
// 6 srcport, 7 dstport, 8 protocol, 9 packets, 10 bytes, 11 start, 12 end,
// 13 action, 14 log-status.
var linePattern = regexp.MustCompile(`^(\d+) (\d+) (.+) ([0-9|.]+) ([0-9|.]+) (\d+) (\d+) (\d+) (\d+) (\d+) (\d+) (\d+) (\w+) (\w+)$`)

// ProtocolTable resolves protocol numbers; protocols.Table implements it.
type ProtocolTable interface {
	Lookup(number string) (string, bool)
}

// Parser validates flow log lines against a protocol table.
type Parser struct {
	Protocols ProtocolTable
}

// NewParser returns a Parser that accepts protocol numbers known to protocols.
func NewParser(protocols ProtocolTable) *Parser {
	return &Parser{Protocols: protocols}
}

// Parse checks a single flow log line. Surrounding whitespace is ignored.
//
// The checks run in a fixed order and the first failure wins:
//
//  1. the line matches the record layout       => ReasonMalformed
//  2. the version is SupportedVersion          => ReasonVersion
//  3. the protocol number is known             => ReasonProtocol
//  4. the action is exactly ACCEPT             => ReasonAction
//  5. the log status is exactly OK             => ReasonStatus
//
// The record is only meaningful when the reason is ReasonAccepted.
func (p *Parser) Parse(line string) (Record, Reason) {
	m := linePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Record{}, ReasonMalformed
	}

	rec := Record{
		Version:     m[1],
		AccountID:   m[2],
		InterfaceID: m[3],
		SrcAddr:     m[4],
		DstAddr:     m[5],
		SrcPort:     m[6],
		DstPort:     m[7],
		Protocol:    m[8],
		Packets:     m[9],
		Bytes:       m[10],
		Start:       m[11],
		End:         m[12],
		Action:      m[13],
		LogStatus:   m[14],
	}

	if rec.Version != SupportedVersion {
		return rec, ReasonVersion
	}
	name, ok := p.Protocols.Lookup(rec.Protocol)
	if !ok {
		return rec, ReasonProtocol
	}
	rec.ProtocolName = name
	if rec.Action != ActionAccept {
		return rec, ReasonAction
	}
	if rec.LogStatus != StatusOK {
		return rec, ReasonStatus
	}

	return rec, ReasonAccepted
}
