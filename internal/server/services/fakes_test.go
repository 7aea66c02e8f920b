package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	otpsrepo "github.com/dmitrijs2005/credvault/internal/server/repositories/otps"
	tokensrepo "github.com/dmitrijs2005/credvault/internal/server/repositories/tokens"
	usersrepo "github.com/dmitrijs2005/credvault/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:               "k",
		SessionValidityDuration: time.Hour,
		TokenSalt:               "s3cr3t",
		EncryptionSecret:        "test-encryption-secret",
		OtpValidityDuration:     2 * time.Minute,
	}
}

func newTestTokenizer(t *testing.T) *cryptox.Tokenizer {
	t.Helper()
	tk, err := cryptox.NewTokenizer("s3cr3t")
	if err != nil {
		t.Fatalf("NewTokenizer error: %v", err)
	}
	return tk
}

func newTestCipher(t *testing.T) *cryptox.Cipher {
	t.Helper()
	c, err := cryptox.NewCipher("test-encryption-secret")
	if err != nil {
		t.Fatalf("NewCipher error: %v", err)
	}
	return c
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- in-memory fakes ---

type fakeUsersRepo struct {
	users map[string]*models.User

	createErr error
	getErr    error
	updateErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeTokensRepo struct {
	rows []*models.Token

	createErr error
	findErr   error
}

func (f *fakeTokensRepo) Create(ctx context.Context, token *models.Token) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.rows {
		if r.EmailToken == token.EmailToken || (token.PhoneToken != "" && r.PhoneToken == token.PhoneToken) {
			return common.ErrorAlreadyExists
		}
	}
	cp := *token
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeTokensRepo) FindByEmailToken(ctx context.Context, emailToken string) (*models.Token, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.rows {
		if r.EmailToken == emailToken {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokensRepo) FindByAnyToken(ctx context.Context, emailToken, phoneToken string) (*models.Token, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if emailToken == "" && phoneToken == "" {
		return nil, common.ErrorInvalidArgument
	}
	for _, r := range f.rows {
		if (emailToken != "" && r.EmailToken == emailToken) ||
			(phoneToken != "" && r.PhoneToken == phoneToken) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeOtpsRepo struct {
	rows []*models.PasswordOtp

	createErr error
	findErr   error
	deleteErr error
}

func (f *fakeOtpsRepo) Create(ctx context.Context, otp *models.PasswordOtp) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *otp
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeOtpsRepo) FindLatest(ctx context.Context, userID string) (*models.PasswordOtp, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var latest *models.PasswordOtp
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeOtpsRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []*models.PasswordOtp
	var n int64
	for _, r := range f.rows {
		if r.ID == id {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeOtpsRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	var kept []*models.PasswordOtp
	for _, r := range f.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeOtpsRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []*models.PasswordOtp
	var n int64
	for _, r := range f.rows {
		if r.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTokensRepo
	o *fakeOtpsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		t: &fakeTokensRepo{},
		o: &fakeOtpsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository     { return m.t }
func (m *fakeRepoManager) Otps(db dbx.DBTX) otpsrepo.Repository         { return m.o }

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
