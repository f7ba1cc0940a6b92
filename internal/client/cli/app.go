// Package cli is the interactive terminal client: a REPL over the REST API
// and a live view of the chat room.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gookit/color"

	"github.com/Tyrowin/bubingachat/internal/chat"
	"github.com/Tyrowin/bubingachat/internal/client"
	"github.com/Tyrowin/bubingachat/internal/users"
)

const leaveCommand = "/leave"

type App struct {
	api         *client.API
	session     *client.Session
	sessionPath string
	baseURL     string
	reader      *bufio.Reader
	readPass    func() ([]byte, error)
	colors      bool

	mu  sync.Mutex
	out io.Writer
}

type Options struct {
	BaseURL     string
	SessionPath string
	In          io.Reader
	Out         io.Writer
	Colors      bool
	HTTPClient  *http.Client
}

// NewApp loads the session file and binds an API client to it.
func NewApp(opts Options) (*App, error) {
	session, err := client.LoadSession(opts.SessionPath)
	if err != nil {
		return nil, err
	}

	return &App{
		api:         client.NewAPI(opts.BaseURL, session, opts.HTTPClient),
		session:     session,
		sessionPath: opts.SessionPath,
		baseURL:     opts.BaseURL,
		reader:      bufio.NewReader(opts.In),
		readPass:    terminalPasswordReader(opts.In),
		out:         opts.Out,
		colors:      opts.Colors,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	if a.session.LoggedIn() {
		a.println("Welcome back,", a.session.User.Username)
	}
	runREPL(ctx, a, a.status, a.reader, a.println)
}

func (a *App) isLoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *App) status() string {
	if a.session.LoggedIn() {
		return a.session.User.Username
	}
	return "guest"
}

func (a *App) println(args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) fail(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		a.println(a.paint(color.FgRed, "Error: "+apiErr.Message))
	} else {
		a.println(a.paint(color.FgRed, "Error: "+err.Error()))
	}
	return err
}

func (a *App) paint(c color.Color, s string) string {
	if !a.colors {
		return s
	}
	return color.New(c).Render(s)
}

func (a *App) saveSession() {
	if err := a.session.Save(a.sessionPath); err != nil {
		a.println("Warning: could not save session:", err)
	}
}

func (a *App) Register(ctx context.Context) error {
	var in users.RegisterInput
	var err error

	if in.Username, err = getText(a.reader, "Username", a.out); err != nil {
		return a.fail(err)
	}
	if in.Email, err = getText(a.reader, "Email", a.out); err != nil {
		return a.fail(err)
	}
	if in.Password, err = getPassword(a.reader, a.readPass, a.out); err != nil {
		return a.fail(err)
	}

	u, err := a.api.Register(ctx, in)
	if err != nil {
		return a.fail(err)
	}
	a.saveSession()
	a.println("Registered and logged in as", u.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	var in users.LoginInput
	var err error

	if in.Email, err = getText(a.reader, "Email", a.out); err != nil {
		return a.fail(err)
	}
	if in.Password, err = getPassword(a.reader, a.readPass, a.out); err != nil {
		return a.fail(err)
	}

	u, err := a.api.Login(ctx, in)
	if err != nil {
		return a.fail(err)
	}
	a.saveSession()
	a.println("Logged in as", u.Username)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.println(fmt.Sprintf("%s <%s> id=%s joined %s", u.Username, u.Email, u.ID, u.CreatedAt.Format("2006-01-02")))
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.session.Clear()
	a.saveSession()
	a.println("Logged out")
	return nil
}

// Chat joins the room and relays stdin lines as messages until /leave or
// EOF. Incoming messages are printed as they arrive.
func (a *App) Chat(ctx context.Context) error {
	if !a.session.LoggedIn() {
		return a.fail(client.ErrNotLoggedIn)
	}

	wsURL, err := client.WSURL(a.baseURL)
	if err != nil {
		return a.fail(err)
	}
	conn, err := client.Dial(ctx, wsURL, a.session.User.Username, nil)
	if err != nil {
		return a.fail(err)
	}

	a.println(fmt.Sprintf("Joined the room. Type %s to return.", leaveCommand))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			msg, err := conn.Receive()
			if err != nil {
				return
			}
			a.println(a.render(msg))
		}
	}()

	for {
		line, err := a.reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == leaveCommand {
			break
		}
		if text != "" {
			if _, sendErr := conn.Send(text); sendErr != nil {
				a.fail(sendErr)
				break
			}
		}
		if err != nil {
			break
		}
	}

	conn.Close()
	wg.Wait()
	a.println("Left the room")
	return nil
}

func (a *App) render(m chat.Message) string {
	name := m.Username
	if a.session.User != nil && name == a.session.User.Username {
		name = a.paint(color.FgGreen, name)
	} else {
		name = a.paint(color.FgCyan, name)
	}
	return fmt.Sprintf("%s %s: %s", a.paint(color.FgGray, "["+m.Time+"]"), name, m.Text)
}
