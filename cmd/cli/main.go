package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/Tyrowin/bubingachat/internal/client/cli"
)

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "bubingachat", "session.json")
}

func main() {
	server := flag.String("server", envOr("CHAT_SERVER", "http://localhost:3001"), "chat server base URL")
	session := flag.String("session", defaultSessionPath(), "session file")
	flag.Parse()

	app, err := cli.NewApp(cli.Options{
		BaseURL:     *server,
		SessionPath: *session,
		In:          os.Stdin,
		Out:         os.Stdout,
		Colors:      term.IsTerminal(int(os.Stdout.Fd())),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
