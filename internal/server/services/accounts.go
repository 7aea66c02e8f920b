package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/server/auth"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
)

// Session is what a successful login produces: the opaque user id and a
// signed token the HTTP layer hands to the client. Raw passwords and OTP
// codes never appear in any service result.
type Session struct {
	UserID      string
	AccessToken string
}

// AccountService handles registration, login, and password updates.
type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	identity        *IdentityService
	tokenizer       *cryptox.Tokenizer
	cipher          *cryptox.Cipher
	hasher          cryptox.PasswordHasher
	jwtSecret       []byte
	sessionValidity time.Duration
}

// NewAccountService constructs an AccountService using repositories, the
// crypto primitives, and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, identity *IdentityService,
	tokenizer *cryptox.Tokenizer, cipher *cryptox.Cipher, cfg *config.Config) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		identity:        identity,
		tokenizer:       tokenizer,
		cipher:          cipher,
		jwtSecret:       []byte(cfg.JWTSecret),
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// Register creates an account: validates the input, rejects identifiers
// already in use, hashes the password, encrypts the PII fields, and writes
// the user row together with its lookup-token row in one transaction.
//
// Lookup tokens are derived from the raw identifiers here, at write time.
// Concurrent signups racing on the same identifier are resolved by the
// store's unique indexes; the loser gets common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, username, email, phone, password string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	taken, err := s.identity.Taken(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.ErrorAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	encUsername, err := s.cipher.Encrypt(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	encEmail, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	encPhone, err := s.cipher.Encrypt(phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     encUsername,
		Email:        encEmail,
		Phone:        encPhone,
		PasswordHash: passwordHash,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Tokens(tx).Create(ctx, &models.Token{
			UserID:     user.ID,
			EmailToken: s.tokenizer.Tokenize(email),
			PhoneToken: s.tokenizer.Tokenize(phone),
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	return user, nil
}

// Login verifies the email/password pair and mints a session token that
// carries the user id and the raw login email. Unknown emails yield
// common.ErrorNotFound, wrong passwords common.ErrorInvalidCredential; the
// transport layer is expected to collapse both into one generic answer.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorInvalidArgument)
	}

	token, err := s.identity.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorInvalidCredential
	}

	accessToken, err := auth.GenerateToken(user.ID, email, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &Session{UserID: user.ID, AccessToken: accessToken}, nil
}

// UpdatePassword rehashes and stores a new password for userID. Called
// after the recovery flow has verified an OTP.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, password string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", common.ErrorInvalidArgument)
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return nil
}
