package services

import "time"

const (
	KeyRateLimit = "ratelimit:%d:%s"

	DefaultRateLimitWindow   = time.Minute
	DefaultRateLimitWallet   = 20 // wallet writes per minute
	DefaultRateLimitRequests = 300
)
