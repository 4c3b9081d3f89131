package textutil

import "testing"

func TestHumanizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"workRecord", "Work Record"},
		{"tableWorkState", "Table Work State"},
		{"project", "Project"},
		{"", ""},
		{"  table  ", "Table"},
	}
	for _, tt := range tests {
		if got := HumanizeIdentifier(tt.in); got != tt.want {
			t.Errorf("HumanizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdefgh", 6); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 6); got != "abc" {
		t.Errorf("Truncate should leave short strings alone, got %q", got)
	}
	if got := Truncate("abcdefgh", 2); got != "abcdefgh" {
		t.Errorf("Truncate with tiny max should be a no-op, got %q", got)
	}
}
