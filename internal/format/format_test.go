package format

import (
	"strings"
	"testing"
	"time"
)

func TestTableBuilder_ASCII(t *testing.T) {
	tb := NewTable(ASCII)
	tb.Header("RUN", "STATUS", "CASES")
	tb.Columns(ColumnConfig{Number: 3, Align: AlignRight})
	tb.Row("20240301-080000-a1b2c3d4", "completed", 1532)

	out := tb.String()
	for _, want := range []string{"RUN", "completed", "1532"} {
		if !strings.Contains(out, want) {
			t.Errorf("ASCII table missing %q:\n%s", want, out)
		}
	}
}

func TestTableBuilder_Markdown(t *testing.T) {
	tb := NewTable(Markdown)
	tb.Header("RUN", "STATUS")
	tb.Row("20240301-080000-a1b2c3d4", "failed")

	out := tb.String()
	if !strings.Contains(out, "|") {
		t.Errorf("markdown table has no pipes:\n%s", out)
	}
	if !strings.Contains(out, "failed") {
		t.Errorf("markdown table missing row value:\n%s", out)
	}
}

func TestFmtDuration(t *testing.T) {
	if got := FmtDuration(95 * time.Second); got != "1m 35s" {
		t.Errorf("FmtDuration(95s) = %q", got)
	}
	if got := FmtDuration(9 * time.Second); got != "9s" {
		t.Errorf("FmtDuration(9s) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("connection refused while downloading", 20); got != "connection refuse..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 20); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
}
