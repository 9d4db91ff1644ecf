package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 7},
		{"1GB", 1 << 30},
		{"10mb", 10 << 20},
		{" 512KB ", 512 << 10},
		{"100B", 100},
		{"2048", 2048},
		{"abc", 7},
		{"-1MB", 7},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseSize(tc.in, 7); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:     "512B",
		2048:    "2.0KB",
		5 << 20: "5.0MB",
		1 << 30: "1.0GB",
	}
	for in, want := range tests {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("sk_live_abcdef", 4); got != "sk_l***" {
		t.Errorf("got %q", got)
	}
	if got := MaskSecret("ab", 4); got != "***" {
		t.Errorf("got %q", got)
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"meeting.MP3", ".mp3"},
		{"a.b.wav", ".wav"},
		{"noext", ""},
		{"../../etc/passwd", ""},
		{"evil.m4a;rm -rf", ".m4armrf"},
		{"dir\\clip.Ogg", ".ogg"},
		{"weird.??", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := SafeExt(tc.in); got != tc.want {
				t.Errorf("SafeExt(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"clip.wav", "clip.wav"},
		{"/tmp/x/clip.wav", "clip.wav"},
		{"..\\..\\clip.wav", "clip.wav"},
		{"..", ""},
		{" name\x00.mp3 ", "name.mp3"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := BaseName(tc.in); got != tc.want {
				t.Errorf("BaseName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPtrHelpers(t *testing.T) {
	p := Ptr(3)
	if Deref(p) != 3 {
		t.Error("Deref(Ptr(3)) != 3")
	}
	var nilPtr *int
	if Deref(nilPtr) != 0 {
		t.Error("Deref(nil) should be zero")
	}
	if Coalesce("", "", "x", "y") != "x" {
		t.Error("Coalesce picked wrong value")
	}
}
