package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowlog-tagger/internal/tally"
)

func TestWrite(t *testing.T) {
	tags := tally.New()
	tags.Inc("sv_P1")
	tags.Inc("Untagged")
	tags.Inc("sv_P1")

	ports := tally.New()
	ports.Inc("25,tcp")
	ports.Inc("8080,tcp")
	ports.Inc("25,tcp")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tags, ports))

	assert.Equal(t, `Tag Counts:
Tag,Count
sv_P1,2
Untagged,1
Port/Protocol Combination Counts:
Port,Protocol,Count
25,tcp,2
8080,tcp,1
`, buf.String())
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tally.New(), nil))

	assert.Equal(t, "Tag Counts:\nTag,Count\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	err := Write(failingWriter{}, tally.New(), tally.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
