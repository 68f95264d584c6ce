package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/memory"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/users"
)

// MemoryRepositoryManager returns the same in-memory repositories for every
// handle. Pair it with dbx.NopTransactor.
type MemoryRepositoryManager struct {
	UsersRepo  *memory.UsersRepository
	TokensRepo *memory.TokensRepository
	FilesRepo  *memory.FilesRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		UsersRepo:  memory.NewUsersRepository(),
		TokensRepo: memory.NewTokensRepository(),
		FilesRepo:  memory.NewFilesRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository   { return m.UsersRepo }
func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository { return m.TokensRepo }
func (m *MemoryRepositoryManager) Files(dbx.DBTX) files.Repository   { return m.FilesRepo }
