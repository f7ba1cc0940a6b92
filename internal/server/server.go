package server

import (
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/logging"
)

// Server owns the HTTP handlers. Build it with New and mount Handler().
type Server struct {
	hub      *Hub
	auth     AuthService
	tokens   auth.TokenVerifier
	logger   logging.Logger
	opts     Options
	origins  *originPolicy
	limiter  *ipRateLimiter
	upgrader websocket.Upgrader
}

func New(hub *Hub, svc AuthService, tokens auth.TokenVerifier, logger logging.Logger, opts Options) *Server {
	opts = sanitizeOptions(opts)

	s := &Server{
		hub:     hub,
		auth:    svc,
		tokens:  tokens,
		logger:  logger,
		opts:    opts,
		origins: newOriginPolicy(opts.AllowedOrigins, logger),
		limiter: newIPRateLimiter(opts.RateLimitRequests, opts.RateLimitWindow),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}

	return s
}
