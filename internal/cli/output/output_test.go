package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

func newTest(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newTest(tt.mode, tt.isTTY)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.isTTY)
	}
}

func TestModeValid(t *testing.T) {
	assert.True(t, Mode("").Valid())
	assert.True(t, ModeJSON.Valid())
	assert.False(t, Mode("yaml").Valid())
}

func TestTable(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.Table([]string{"Asset", "Status"}, [][]string{{"orders", "pass"}})
	assert.Contains(t, out.String(), "| Asset | Status |")
	assert.Contains(t, out.String(), "| orders | pass |")

	r, out, _ = newTest(ModeText, false)
	r.Table([]string{"Asset", "Status"}, [][]string{{"orders", "pass"}})
	assert.Contains(t, out.String(), "┌")
	assert.Contains(t, out.String(), "orders")
}

func TestNonTTYHasNoColour(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.StatusLine("orders", core.StatusFail, "2 findings")
	r.Warning("careful")

	assert.Equal(t, "FAIL orders 2 findings\n", out.String())
	assert.Equal(t, "! careful\n", errOut.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestHeaderAndKeyValue(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.Header(2, "Summary")
	r.KeyValue("Status", "pass")
	assert.Equal(t, "## Summary\n\n- **Status**: pass\n", out.String())

	r, out, _ = newTest(ModeText, false)
	r.Header(2, "Summary")
	r.KeyValue("Status", "pass")
	assert.Equal(t, "Summary\nStatus: pass\n", out.String())
}

func TestJSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]core.Status{"status": core.StatusWarn}))
	assert.Equal(t, "{\n  \"status\": \"warn\"\n}\n", out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "### Notes", FormatHeader(3, "Notes"))
	assert.Equal(t, "# X", FormatHeader(0, "X"))
	assert.True(t, strings.HasPrefix(FormatKeyValue("a", "b"), "- **a**"))
}
