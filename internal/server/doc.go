// Package server implements the HTTP and WebSocket surface of the chat
// server.
//
// The REST side exposes registration, login and the current user under
// /api/auth, wrapped in CORS, a per-IP rate limiter and a single error stage
// that maps domain error kinds to status codes. The realtime side is a Hub
// that relays every send_message event to all connected clients, the sender
// included.
package server
