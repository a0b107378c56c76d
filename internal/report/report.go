package report

import (
	"bufio"
	"fmt"
	"io"

	"flowlog-tagger/internal/tally"
)

const (
	TagSectionTitle  = "Tag Counts:"
	TagColumns       = "Tag,Count"
	PortSectionTitle = "Port/Protocol Combination Counts:"
	PortColumns      = "Port,Protocol,Count"
)

// Write renders both tables in insertion order:
//
//	Tag Counts:
//	Tag,Count
//	sv_P1,2
//	Port/Protocol Combination Counts:
//	Port,Protocol,Count
//	25,tcp,2
//
// Port/protocol keys already carry their comma, so each row is key,count.
func Write(w io.Writer, tags, portProtocols *tally.Counts) error {
	bw := bufio.NewWriter(w)

	writeSection(bw, TagSectionTitle, TagColumns, tags)
	writeSection(bw, PortSectionTitle, PortColumns, portProtocols)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// writeSection relies on bufio.Writer keeping the first error; Flush reports it.
func writeSection(bw *bufio.Writer, title, columns string, counts *tally.Counts) {
	bw.WriteString(title)
	bw.WriteByte('\n')
	bw.WriteString(columns)
	bw.WriteByte('\n')

	if counts == nil {
		return
	}
	for _, e := range counts.Entries() {
		fmt.Fprintf(bw, "%s,%d\n", e.Key, e.Count)
	}
}
