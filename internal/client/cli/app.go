package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/cloudservice/internal/client/api"
	"github.com/dmitrijs2005/cloudservice/internal/client/config"
)

// fileAPI is the part of api.Client the commands use.
type fileAPI interface {
	Login(ctx context.Context, login, password string) error
	Logout(ctx context.Context) error
	Token() string
	Upload(ctx context.Context, filename string, content io.Reader, hash string) error
	Download(ctx context.Context, filename string) (*api.File, error)
	List(ctx context.Context, limit int) ([]api.FileInfo, error)
	Rename(ctx context.Context, oldName, newName string) error
	Delete(ctx context.Context, filename string) error
}

type App struct {
	config   *config.Config
	api      fileAPI
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.New(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(anonymous)"
	}
	return "(" + a.userName + ")"
}

// Run starts the REPL on stdin.
func (a *App) Run(ctx context.Context) {
	printlnFn("cloudservice CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
