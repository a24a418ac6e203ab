package updater

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "1.2.3", want: Version{1, 2, 3}},
		{in: "v0.4.0", want: Version{0, 4, 0}},
		{in: "10.0.12", want: Version{10, 0, 12}},
		{in: "dev", wantErr: true},
		{in: "1.2", wantErr: true},
		{in: "1.2.x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOlder(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.0.0", "2.0.0", true},
		{"1.2.0", "1.3.0", true},
		{"1.2.3", "1.2.4", true},
		{"1.2.3", "1.2.3", false},
		{"2.0.0", "1.9.9", false},
	}
	for _, tt := range tests {
		a, _ := Parse(tt.a)
		b, _ := Parse(tt.b)
		if got := a.Older(b); got != tt.want {
			t.Errorf("%s.Older(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
