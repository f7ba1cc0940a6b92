package server

import "time"

// Options are the server-level knobs taken from config.Config.
type Options struct {
	AllowedOrigins    []string
	MaxMessageSize    int64
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// DefaultOptions allows any origin, leaves frames unlimited and caps each
// client IP at 100 API requests per 15 minutes.
func DefaultOptions() Options {
	return Options{
		AllowedOrigins:    []string{"*"},
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
	}
}

func sanitizeOptions(opts Options) Options {
	def := DefaultOptions()

	if opts.MaxMessageSize < 0 {
		opts.MaxMessageSize = 0
	}
	if opts.RateLimitRequests <= 0 {
		opts.RateLimitRequests = def.RateLimitRequests
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = def.RateLimitWindow
	}

	opts.AllowedOrigins = append([]string(nil), opts.AllowedOrigins...)
	return opts
}
