package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF or
// "exit". File commands need a login first. Handler errors are reported by
// the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cs %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload, download, (l)ist, rename, delete, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "login":
			_ = a.Login(ctx, args)
			continue
		}

		if !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		switch cmd {
		case "logout":
			_ = a.Logout(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)
		case "download":
			_ = a.Download(ctx, args)
		case "l", "list":
			_ = a.List(ctx, args)
		case "rename":
			_ = a.Rename(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
