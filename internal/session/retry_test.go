package session

import (
	"testing"
	"time"
)

func TestPolicyDefaultsKeepOneLimit(t *testing.T) {
	cases := []struct {
		name     string
		in       Policy
		failures int
		elapsed  time.Duration
	}{
		{name: "zero", in: Policy{}, failures: DefaultPolicy.MaxFailures, elapsed: DefaultPolicy.MaxElapsed},
		{name: "failures only", in: Policy{MaxFailures: 4}, failures: 4},
		{name: "elapsed only", in: Policy{MaxElapsed: time.Minute}, elapsed: time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.withDefaults()
			if got.MaxFailures != tc.failures || got.MaxElapsed != tc.elapsed {
				t.Fatalf("expected limits %d/%s, got %d/%s", tc.failures, tc.elapsed, got.MaxFailures, got.MaxElapsed)
			}
			if got.PollInterval <= 0 || got.ErrorInterval <= 0 {
				t.Fatalf("expected intervals filled, got %+v", got)
			}
		})
	}
}
