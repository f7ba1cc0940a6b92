package server

import "net/http"

// Handler returns the full HTTP surface. /api routes pass through CORS and
// the per-IP limiter; everything passes through panic recovery and request
// logging.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.Handle("POST /api/auth/register", s.handle(s.register))
	api.Handle("POST /api/auth/login", s.handle(s.login))
	api.Handle("GET /api/auth/me", s.handle(s.requireAuth(s.me)))
	api.Handle("/api/", s.handle(s.notFound))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.health)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /test", s.testPage)
	mux.Handle("/api/", chain(api, s.cors, s.rateLimit))

	return chain(mux, s.recoverPanics, s.logRequests)
}
