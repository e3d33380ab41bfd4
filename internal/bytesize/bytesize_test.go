package bytesize

import (
	"testing"

	"github.com/mitchellh/mapstructure"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ByteSize
		wantErr bool
	}{
		{"0", 0, false},
		{"4096", 4096, false},
		{"512B", 512, false},
		{"1K", KB, false},
		{"100MB", 100 * MB, false},
		{"1Ki", KiB, false},
		{"256mib", 256 * MiB, false},
		{"1.5Gi", GiB + GiB/2, false},
		{" 2 Ti ", 2 * TiB, false},
		{"1Pi", PiB, false},

		{"", 0, true},
		{"   ", 0, true},
		{"-1Gi", 0, true},
		{"Gi", 0, true},
		{"10Xi", 0, true},
		{"99999999999999999999", 0, true},
		{"20000000Pi", 0, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMarshalTextParsesBack(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0"},
		{1000, "1000"},
		{4 * KiB, "4Ki"},
		{1536 * KiB, "1536Ki"},
		{GiB, "1Gi"},
		{3 * TiB, "3Ti"},
	}

	for _, tt := range tests {
		text, err := tt.in.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", tt.in, err)
		}
		if string(text) != tt.want {
			t.Errorf("MarshalText(%d) = %q, want %q", tt.in, text, tt.want)
		}
		var back ByteSize
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != tt.in {
			t.Errorf("UnmarshalText(%q) = %d, want %d", text, back, tt.in)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{512, "512B"},
		{2 * KiB, "2.00KiB"},
		{100 * MiB, "100.00MiB"},
		{GiB + GiB/2, "1.50GiB"},
		{2 * TiB, "2.00TiB"},
		{PiB, "1.00PiB"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.in), got, tt.want)
		}
	}
}

func TestDecodeHook(t *testing.T) {
	var out struct {
		A ByteSize `mapstructure:"a"`
		B ByteSize `mapstructure:"b"`
		C ByteSize `mapstructure:"c"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(map[string]any{"a": "1Gi", "b": 4096, "c": float64(8192)}); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.A != GiB || out.B != 4096 || out.C != 8192 {
		t.Errorf("decoded %+v", out)
	}

	dec, _ = mapstructure.NewDecoder(&mapstructure.DecoderConfig{DecodeHook: DecodeHook(), Result: &out})
	if err := dec.Decode(map[string]any{"a": -1}); err == nil {
		t.Error("negative size decoded without error")
	}
}
