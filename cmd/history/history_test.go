package history

import "testing"

func TestShortID(t *testing.T) {
	if got := shortID("3f2a9c1e-0b7d-4e0a-9f5e-1c2d3e4f5a6b"); got != "3f2a9c1e" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:    "0ms",
		850:  "850ms",
		1500: "1.5s",
	}
	for ms, want := range tests {
		if got := formatDuration(ms); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestListIsDefault(t *testing.T) {
	cmd := NewCommand()
	if cmd.RunE == nil {
		t.Fatal("history should list runs without a subcommand")
	}
	for _, name := range []string{"last", "command", "task", "since", "failed"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
}
