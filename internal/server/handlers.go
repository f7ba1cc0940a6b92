package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Tyrowin/bubingachat/internal/apperr"
	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/users"
)

// AuthService is what the HTTP layer needs from users.Service.
type AuthService interface {
	Register(ctx context.Context, in users.RegisterInput) (users.AuthResult, error)
	Login(ctx context.Context, in users.LoginInput) (users.AuthResult, error)
	GetMe(ctx context.Context, userID string) (users.User, error)
}

// handlerFunc is an API handler. A returned error is rendered by writeError.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var in users.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	res, err := s.auth.Register(r.Context(), in)
	if err != nil {
		return err
	}

	writeData(w, http.StatusCreated, res)
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var in users.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	res, err := s.auth.Login(r.Context(), in)
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, res)
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return apperr.Unauthorized("")
	}

	user, err := s.auth.GetMe(r.Context(), id.UserID)
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, map[string]users.User{"user": user})
	return nil
}

func (s *Server) notFound(_ http.ResponseWriter, _ *http.Request) error {
	return apperr.New(apperr.KindNotFound, "Route not found")
}

// serveWS upgrades the request and hands the connection to the hub.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.opts.MaxMessageSize, s.logger)
	if !s.hub.Register(r.Context(), client) {
		_ = conn.Close()
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Chat server is running!")
}

// testPage serves a small browser client: log in over REST, then chat over
// the relay.
func (s *Server) testPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		s.logger.Warn(r.Context(), "error writing test page", "error", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input { padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Chat Test</h1>

    <div>
        <input type="email" id="email" placeholder="email">
        <input type="password" id="password" placeholder="password">
        <button onclick="login()">Login</button>
    </div>

    <div id="status" class="status disconnected">Not logged in</div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        let username = '';
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');

        function addLine(text, color) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.style.color = color || 'gray';
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function setConnected(connected) {
            statusDiv.textContent = connected ? 'Connected as ' + username : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
        }

        async function login() {
            const res = await fetch('/api/auth/login', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({
                    email: document.getElementById('email').value,
                    password: document.getElementById('password').value,
                }),
            });
            const body = await res.json();
            if (!body.success) {
                addLine('Login failed: ' + body.error, 'red');
                return;
            }
            username = body.data.user.username;
            connect();
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => setConnected(true);
            ws.onclose = () => { setConnected(false); ws = null; };
            ws.onmessage = (event) => {
                const ev = JSON.parse(event.data);
                if (ev.event !== 'receive_message') return;
                const m = ev.data;
                addLine('[' + m.time + '] ' + m.username + ': ' + m.text, m.username === username ? 'blue' : 'green');
            };
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (!text || !ws || ws.readyState !== WebSocket.OPEN) return;
            const now = new Date();
            ws.send(JSON.stringify({
                event: 'send_message',
                data: {
                    id: Date.now().toString(36) + Math.random().toString(36).slice(2),
                    username: username,
                    text: text,
                    time: now.toTimeString().slice(0, 5),
                },
            }));
            messageInput.value = '';
        }

        messageInput.addEventListener('keypress', (e) => {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
