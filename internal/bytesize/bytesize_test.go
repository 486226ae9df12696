package bytesize

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"0", 0, false},
		{"4096", 4096, false},
		{"512B", 512, false},
		{"128KiB", 128 * 1024, false},
		{"128ki", 128 * 1024, false},
		{"16Mi", 16 * 1024 * 1024, false},
		{"1GiB", 1 << 30, false},
		{"4K", 4000, false},
		{"2MB", 2000000, false},
		{" 64 KiB ", 64 * 1024, false},
		{"1.5KiB", 1536, false},
		{"", 0, true},
		{"KiB", 0, true},
		{"12XB", 0, true},
		{"-1", 0, true},
		{"1.2.3K", 0, true},
		{"99999999999999999999", 0, true},
		{"20000000000GiB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, size := range []ByteSize{0, 1000, 1024, 128 * KiB, 3 * MiB, 2 * GiB, 1536} {
		text, err := size.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", size, err)
		}
		var back ByteSize
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != size {
			t.Errorf("round trip of %d gave %d via %q", size, back, text)
		}
	}

	if got := (128 * KiB).String(); got != "128KiB" {
		t.Errorf("String() = %q, want 128KiB", got)
	}
	if got := ByteSize(1536).String(); got != "1536" {
		t.Errorf("String() = %q, want 1536", got)
	}
}

func TestInt(t *testing.T) {
	if got := (16 * MiB).Int(); got != 16<<20 {
		t.Errorf("Int() = %d", got)
	}
}
