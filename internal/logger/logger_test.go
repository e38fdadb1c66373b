package logger

import "testing"

func TestTruncateForLog(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{in: "  short  ", limit: 10, want: "short"},
		{in: "abcdef", limit: 3, want: "abc..."},
		{in: "привет мир", limit: 6, want: "привет..."},
		{in: "anything", limit: 0, want: ""},
	}

	for _, tc := range cases {
		if got := TruncateForLog(tc.in, tc.limit); got != tc.want {
			t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestNewBuildsLogger(t *testing.T) {
	for _, json := range []bool{false, true} {
		log, err := New(json, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !log.Core().Enabled(-1) {
			t.Fatalf("expected debug level to be enabled")
		}
	}
}
