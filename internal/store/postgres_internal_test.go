package store

import "testing"

func TestLikeEscape(t *testing.T) {
	cases := map[string]string{
		"broker:u1:":    "broker:u1:",
		"broker:u_1:":   `broker:u\_1:`,
		"broker:100%:":  `broker:100\%:`,
		`broker:a\b:`:   `broker:a\\b:`,
		`portfolio:_%\`: `portfolio:\_\%\\`,
	}
	for in, want := range cases {
		if got := likeEscape(in); got != want {
			t.Errorf("likeEscape(%q) = %q, want %q", in, got, want)
		}
	}
}
