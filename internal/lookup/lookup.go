package lookup

import (
	"fmt"
	"io"
	"os"
	"strings"

	"flowlog-tagger/internal/lineio"
)

// Table maps a "<dstport>,<protocol>" key to a tag. Protocol names in keys are
// lowercase; tags keep the casing they had in the lookup file.
type Table map[string]string

// Key builds the composite key used by Table and by the port/protocol report.
func Key(dstPort, protocol string) string {
	return dstPort + "," + strings.ToLower(protocol)
}

// Tag returns the tag for a key.
func (t Table) Tag(key string) (string, bool) {
	tag, ok := t[key]
	return tag, ok
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads a lookup table in the format
//
//	dstport,protocol,tag
//
// one row per line. Rows that do not split into exactly three comma separated
// fields (blank lines included) are skipped without error. When a key appears
// more than once the last row wins.
func Load(r io.Reader) (Table, error) {
	t := Table{}

	sc := lineio.NewScanner(r)
	for sc.Scan() {
		t.addRow(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lookup table: %w", err)
	}

	return t, nil
}

func (t Table) addRow(line string) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return
	}
	t[Key(fields[0], fields[1])] = fields[2]
}
