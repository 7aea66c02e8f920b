package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// uniqueViolationCode is the PostgreSQL error code for unique_violation.
const uniqueViolationCode = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (user_id, email_token, phone_token)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.UserID, token.EmailToken, token.PhoneToken); err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByEmailToken(ctx context.Context, emailToken string) (*models.Token, error) {
	query := `
		SELECT user_id, email_token, phone_token
		FROM tokens
		WHERE email_token = $1
	`
	return r.queryOne(ctx, query, emailToken)
}

func (r *PostgresRepository) FindByAnyToken(ctx context.Context, emailToken, phoneToken string) (*models.Token, error) {
	// Empty tokens are skipped so an absent phone can never match the
	// rows that store phone_token = ''.
	switch {
	case emailToken != "" && phoneToken != "":
		query := `
			SELECT user_id, email_token, phone_token
			FROM tokens
			WHERE email_token = $1 OR phone_token = $2
		`
		return r.queryOne(ctx, query, emailToken, phoneToken)
	case emailToken != "":
		return r.FindByEmailToken(ctx, emailToken)
	case phoneToken != "":
		query := `
			SELECT user_id, email_token, phone_token
			FROM tokens
			WHERE phone_token = $1
		`
		return r.queryOne(ctx, query, phoneToken)
	default:
		return nil, common.ErrorInvalidArgument
	}
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Token, error) {
	token := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&token.UserID, &token.EmailToken, &token.PhoneToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
