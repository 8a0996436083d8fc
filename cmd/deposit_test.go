package cmd

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"12", 1200, false},
		{"12.5", 1250, false},
		{"12.05", 1205, false},
		{".5", 50, false},
		{"-3.05", -305, false},
		{" 7 ", 700, false},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"1.x", 0, true},
		{"-", 0, true},
		{".", 0, true},
		{"1.-5", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "--------"},
		{"abc", "abc"},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "0f8fad5b"},
	}
	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
