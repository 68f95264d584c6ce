package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/filex"
)

const defaultListLimit = 100

var errUsage = errors.New("usage")

func (a *App) report(err error) error {
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}

func (a *App) Login(ctx context.Context, _ []string) error {
	userName, err := GetSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		return a.report(fmt.Errorf("login unsuccessful: %w", err))
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.api.Logout(ctx); err != nil {
		return a.report(err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return a.report(fmt.Errorf("%w: upload <path> [name]", errUsage))
	}
	path := args[0]
	name := filepath.Base(path)
	if len(args) == 2 {
		name = args[1]
	}

	hash, err := fileHash(path)
	if err != nil {
		return a.report(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return a.report(err)
	}
	defer f.Close()

	if err := a.api.Upload(ctx, name, f, hash); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Uploaded %s\n", name)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return a.report(fmt.Errorf("%w: download <name> [path]", errUsage))
	}

	f, err := a.api.Download(ctx, args[0])
	if err != nil {
		return a.report(err)
	}

	var target string
	if len(args) == 2 {
		target = args[1]
	} else {
		dir, err := filex.EnsureDir(a.config.DownloadDir)
		if err != nil {
			return a.report(err)
		}
		target = filepath.Join(dir, filepath.Base(f.Filename))
	}

	if f.Hash != "" {
		sum := sha256.Sum256(f.Content)
		if hex.EncodeToString(sum[:]) != f.Hash {
			fmt.Fprintln(a.out, "warning: content does not match the stored hash")
		}
	}

	if err := os.WriteFile(target, f.Content, 0o600); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", target, len(f.Content))
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	limit := defaultListLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return a.report(fmt.Errorf("%w: list [limit]", errUsage))
		}
		limit = n
	}

	files, err := a.api.List(ctx, limit)
	if err != nil {
		return a.report(err)
	}

	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files")
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(a.out, "%-40s %10d\n", f.Filename, f.Size)
	}
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.report(fmt.Errorf("%w: rename <old> <new>", errUsage))
	}
	if err := a.api.Rename(ctx, args[0], args[1]); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Renamed %s to %s\n", args[0], args[1])
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(fmt.Errorf("%w: delete <name>", errUsage))
	}
	if err := a.api.Delete(ctx, args[0]); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}
