// Package services implements the server's use cases on top of the
// repositories: account signup and signin, per-request identity resolution,
// and owner-scoped task management.
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
	"github.com/google/uuid"
)

// PasswordHasher derives and checks stored password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (hash string, salt []byte, err error)
	Verify(plaintext string, hash string, salt []byte) bool
}

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	Issue(account *models.Account) (string, error)
	Verify(token string) (*auth.Payload, error)
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	resolver    *IdentityResolver
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	tokens TokenIssuer, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		resolver:    NewIdentityResolver(db, m, logger),
		logger:      logger,
	}
}

// SignUp registers a new account. It does not sign the account in.
// A taken username yields common.ErrorConflict; any other failure
// common.ErrorInternal.
func (s *AccountService) SignUp(ctx context.Context, username, password string) error {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Error(ctx, "account id generation failed", "error", err)
		return common.ErrorInternal
	}

	account := &models.Account{
		ID:           id.String(),
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	}

	repo := s.repomanager.Accounts(s.db)
	if _, err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorConflict
		}
		s.logger.Error(ctx, "account creation failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "account created", "account_id", account.ID)
	return nil
}

// ValidateCredentials returns the account when password matches, and
// (nil, nil) when the username is unknown or the password is wrong. Only
// storage failures are errors.
func (s *AccountService) ValidateCredentials(ctx context.Context, username, password string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, account.PasswordHash, account.Salt) {
		return nil, nil
	}

	return account, nil
}

// SignIn returns a session token for valid credentials. Unknown usernames
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *AccountService) SignIn(ctx context.Context, username, password string) (string, error) {
	account, err := s.ValidateCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return "", common.ErrorInternal
	}

	return token, nil
}

// Authenticate verifies token and resolves it to a live account. Every
// verification failure is reported as common.ErrorUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	payload, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Warn(ctx, "token rejected", "reason", err.Error())
		return nil, common.ErrorUnauthorized
	}

	return s.resolver.Resolve(ctx, payload)
}
