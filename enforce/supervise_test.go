package enforce

import "testing"

func TestJoinWhitepaths(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"/tmp"}, "/tmp"},
		{[]string{"/tmp", "/var/run"}, "/tmp:/var/run"},
	}
	for _, c := range cases {
		if got := joinWhitepaths(c.in); got != c.want {
			t.Errorf("joinWhitepaths(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
