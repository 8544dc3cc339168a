package ui

import "testing"

func TestLogPriority(t *testing.T) {
	cases := []struct {
		line string
		want byte
		ok   bool
	}{
		{"E/AndroidRuntime: FATAL EXCEPTION: main", 'E', true},
		{"01-02 03:04:05.678  1234  5678 W ActivityManager: slow", 'W', true},
		{"--------- beginning of main", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := logPriority(tc.line)
		if got != tc.want || ok != tc.ok {
			t.Errorf("logPriority(%q) = %q, %v; want %q, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}
