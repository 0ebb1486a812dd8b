package ai

import "errors"

var (
	ErrDisabled            = errors.New("ai features are disabled")
	ErrRateLimited         = errors.New("ai per-minute rate limit exceeded")
	ErrDailyCapExceeded    = errors.New("ai daily cap exceeded")
	ErrJobNotCompleted     = errors.New("job has no completed report to explain")
)
