package speech

import "testing"

func TestFilenameFor(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"audio/m4a", "recording.m4a"},
		{"audio/mp4", "recording.m4a"},
		{"audio/mpeg", "recording.mp3"},
		{"audio/wav", "recording.wav"},
		{"audio/webm", "recording.webm"},
		{"application/octet-stream", "recording.m4a"},
		{"", "recording.m4a"},
	}
	for _, tc := range cases {
		if got := filenameFor(tc.mime); got != tc.want {
			t.Errorf("%q: want %q, got %q", tc.mime, tc.want, got)
		}
	}
}
