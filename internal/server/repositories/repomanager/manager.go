package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/payments"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/privacypolicies"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Payments(db dbx.DBTX) payments.Repository
	PrivacyPolicies(db dbx.DBTX) privacypolicies.Repository
}
