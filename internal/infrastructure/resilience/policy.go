package resilience

import "time"

// Policy bounds the retry loop and the circuit breaker shared by the
// outbound adapters.
type Policy struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultPolicy() Policy {
	return Policy{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     500 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()

	if p.RetryMaxAttempts <= 0 {
		p.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if p.RetryInitialBackoff <= 0 {
		p.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if p.RetryMaxBackoff <= 0 {
		p.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if p.RetryMaxBackoff < p.RetryInitialBackoff {
		p.RetryMaxBackoff = p.RetryInitialBackoff
	}
	if p.RetryMultiplier < 1.0 {
		p.RetryMultiplier = def.RetryMultiplier
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = def.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if p.BreakerOpenTimeout <= 0 {
		p.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if p.BreakerHalfOpenMaxCalls == 0 {
		p.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return p
}
