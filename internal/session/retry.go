package session

import (
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"

	"reqtester/pkg/tester/httpclient"
)

// Policy configures polling cadence and when to give up on failures.
type Policy struct {
	PollInterval  time.Duration // wait between polls while running
	ErrorInterval time.Duration // wait after a failed poll
	MaxFailures   int           // consecutive failures before stalling (0 disables)
	MaxElapsed    time.Duration // time since the last good poll before stalling (0 disables)
}

// DefaultPolicy polls every second, retries failures every two seconds and
// stalls after 30 consecutive failures or two minutes without a good poll.
var DefaultPolicy = Policy{
	PollInterval:  time.Second,
	ErrorInterval: 2 * time.Second,
	MaxFailures:   30,
	MaxElapsed:    2 * time.Minute,
}

// withDefaults fills unset intervals. At least one failure limit always
// stays active so polling ends in a stalled phase.
func (p Policy) withDefaults() Policy {
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPolicy.PollInterval
	}
	if p.ErrorInterval <= 0 {
		p.ErrorInterval = 2 * p.PollInterval
	}
	if p.MaxFailures <= 0 && p.MaxElapsed <= 0 {
		p.MaxFailures = DefaultPolicy.MaxFailures
		p.MaxElapsed = DefaultPolicy.MaxElapsed
	}
	return p
}

// exhausted reports whether polling should stop after err.
func (p Policy) exhausted(failures int, sinceSuccess time.Duration, err error) bool {
	if !retryable(err) {
		return true
	}
	if p.MaxFailures > 0 && failures >= p.MaxFailures {
		return true
	}
	if p.MaxElapsed > 0 && sinceSuccess >= p.MaxElapsed {
		return true
	}
	return false
}

// retryable treats client errors other than timeouts and rate limits as
// permanent: a session that no longer exists will not come back.
func retryable(err error) bool {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return true
	}
	switch {
	case httpErr.Status == http.StatusRequestTimeout, httpErr.Status == http.StatusTooManyRequests:
		return true
	case httpErr.Status >= 400 && httpErr.Status < 500:
		return false
	default:
		return true
	}
}
