package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// IdentityResolver turns a verified token payload into the account it names.
// The lookup is repeated on every call, so a token outlives neither the
// account nor a rename of it.
type IdentityResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewIdentityResolver(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *IdentityResolver {
	return &IdentityResolver{db: db, repomanager: m, logger: logger}
}

func (r *IdentityResolver) Resolve(ctx context.Context, payload *auth.Payload) (*models.Account, error) {
	if payload == nil || payload.Username == "" {
		return nil, common.ErrorUnauthorized
	}

	account, err := r.repomanager.Accounts(r.db).GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			r.logger.Warn(ctx, "token subject has no account")
			return nil, common.ErrorUnauthorized
		}
		r.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	return account, nil
}
