// Package services contains the server-side business logic: account
// registration and login, identity resolution over lookup tokens, and the
// one-time-passcode recovery flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
)

// IdentityService answers "does an account with this identifier exist"
// questions. All matching happens via deterministic lookup tokens; the
// encrypted PII columns are never queried.
//
// The two entry points are deliberately separate: Taken is the signup
// duplicate check (true when EITHER identifier is already used by any
// account), LookupByEmail is the login/recovery resolution of a single
// identifier. They must not be collapsed into one ambiguous call.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokenizer   *cryptox.Tokenizer
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, tokenizer *cryptox.Tokenizer) *IdentityService {
	return &IdentityService{db: db, repomanager: m, tokenizer: tokenizer}
}

// Taken reports whether any account already uses the given email OR phone.
// At least one identifier is required; otherwise common.ErrorInvalidArgument.
func (s *IdentityService) Taken(ctx context.Context, email, phone string) (bool, error) {
	if email == "" && phone == "" {
		return false, fmt.Errorf("%w: either email or phone must be provided", common.ErrorInvalidArgument)
	}

	var emailToken, phoneToken string
	if email != "" {
		emailToken = s.tokenizer.Tokenize(email)
	}
	if phone != "" {
		phoneToken = s.tokenizer.Tokenize(phone)
	}

	_, err := s.repomanager.Tokens(s.db).FindByAnyToken(ctx, emailToken, phoneToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	return true, nil
}

// LookupByEmail resolves a single email to its token row (and therefore its
// user id). Unknown emails yield common.ErrorNotFound.
func (s *IdentityService) LookupByEmail(ctx context.Context, email string) (*models.Token, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email must be provided", common.ErrorInvalidArgument)
	}

	token, err := s.repomanager.Tokens(s.db).FindByEmailToken(ctx, s.tokenizer.Tokenize(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	return token, nil
}
