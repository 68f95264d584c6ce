package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or transaction
// handle and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Files(db dbx.DBTX) files.Repository
}
