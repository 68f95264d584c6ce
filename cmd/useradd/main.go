// Command useradd provisions an account for the file service.
//
//	useradd -d "postgres://..." -u alice
//
// The password is read from the terminal twice without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudservice/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// openStore connects to the database and applies the migrations.
var openStore = func(ctx context.Context, dsn string) (dbx.Transactor, repomanager.RepositoryManager, func(), error) {
	db, err := repomanager.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	return dbx.NewSQLTransactor(db), rm, func() { _ = db.Close() }, nil
}

func promptPassword(out io.Writer) ([]byte, error) {
	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(out, "Repeat password: ")
	again, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	defer common.WipeByteArray(again)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}

	if string(pw) != string(again) {
		common.WipeByteArray(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(out)
	dsn := fs.String("d", os.Getenv("DATABASE_DSN"), "database DSN")
	userName := fs.String("u", "", "user name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userName == "" || *dsn == "" {
		return errors.New("both -u and -d are required")
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	tx, rm, closeFn, err := openStore(ctx, *dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer closeFn()

	us := services.NewUserService(tx, rm, nil, logging.Nop{})
	u, err := us.Register(ctx, *userName, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created user %s (%s)\n", u.UserName, u.ID)
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
