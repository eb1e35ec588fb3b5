package jobs

import "testing"

func TestLimiterSweepCron(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		want    string
	}{
		{"configured", 10, "*/10 * * * *"},
		{"every minute", 1, "*/1 * * * *"},
		{"zero falls back to default", 0, "*/5 * * * *"},
		{"negative falls back to default", -3, "*/5 * * * *"},
		{"over an hour falls back to default", 90, "*/5 * * * *"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := limiterSweepCron(tc.minutes); got != tc.want {
				t.Errorf("limiterSweepCron(%d) = %q, want %q", tc.minutes, got, tc.want)
			}
		})
	}
}
