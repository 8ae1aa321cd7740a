package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProfileHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProfileHTML(&buf, meter(), h))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Meter profile")
	assert.Contains(t, out, "activepower")
	assert.Contains(t, out, "naturalgaspower")
	assert.Contains(t, out, "1970-01-01 00:45")
}

func TestScheduleRejectsHTML(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, WriteScheduleFile(filepath.Join(dir, "schedule.html"), snapshot()))
	assert.NoError(t, WriteProfileFile(filepath.Join(dir, "meter.html"), meter(), h))
}
