package flowlog

// This package is responsible ONLY for turning flow log lines into records
// and deciding whether a record takes part in aggregation.
//
// IMPORTANT:
// - Keep this package free from Prometheus dependencies.
// - A rejected line is never an error. Parse reports why it was rejected and
//   the caller decides what to do with that.

// SupportedVersion is the only flow log record version that is aggregated.
const SupportedVersion = "2"

const (
	ActionAccept = "ACCEPT"
	StatusOK     = "OK"
)

// Record is one parsed flow log line in the version 2 default format:
//
//	version account-id interface-id srcaddr dstaddr srcport dstport protocol packets bytes start end action log-status
//
// Values are kept exactly as they appear in the line; numeric fields are not
// converted because only their textual form is used for keys.
type Record struct {
	Version     string
	AccountID   string
	InterfaceID string
	SrcAddr     string
	DstAddr     string
	SrcPort     string
	DstPort     string
	Protocol    string // protocol number, e.g. "6"
	Packets     string
	Bytes       string
	Start       string
	End         string
	Action      string
	LogStatus   string

	// ProtocolName is the keyword Protocol resolved to, e.g. "tcp". It is
	// empty when the line was rejected before the protocol check passed.
	ProtocolName string
}

// Reason tells why Parse accepted or rejected a line.
type Reason int

const (
	ReasonAccepted Reason = iota
	ReasonMalformed
	ReasonVersion
	ReasonProtocol
	ReasonAction
	ReasonStatus
)

// SkipReasons lists every rejection reason in check order.
var SkipReasons = []Reason{ReasonMalformed, ReasonVersion, ReasonProtocol, ReasonAction, ReasonStatus}

func (r Reason) String() string {
	switch r {
	case ReasonAccepted:
		return "accepted"
	case ReasonMalformed:
		return "malformed"
	case ReasonVersion:
		return "version"
	case ReasonProtocol:
		return "protocol"
	case ReasonAction:
		return "action"
	case ReasonStatus:
		return "status"
	default:
		return "unknown"
	}
}
