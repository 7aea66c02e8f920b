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
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/mail"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
)

const otpMailSubject = "Your OTP for Password Reset"

// RecoveryService is the OTP manager: it issues, verifies, and sweeps
// one-time passcodes for the password-recovery flow.
//
// Issuance does not purge earlier unconsumed rows; they become stale
// residue that verification cleanup or Sweep removes. Only the most
// recently created row is ever considered by Verify. The service applies
// no resend cool-down; that belongs to the caller.
type RecoveryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      *cryptox.Cipher
	hasher      cryptox.PasswordHasher
	mailer      mail.Mailer
	logger      logging.Logger
	otpValidity time.Duration
}

// NewRecoveryService constructs a RecoveryService.
func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, cipher *cryptox.Cipher,
	mailer mail.Mailer, logger logging.Logger, cfg *config.Config) *RecoveryService {
	return &RecoveryService{
		db:          db,
		repomanager: m,
		cipher:      cipher,
		mailer:      mailer,
		logger:      logger,
		otpValidity: cfg.OtpValidityDuration,
	}
}

// Issue generates a fresh 6-digit code for userID, persists its hash with
// an expiry of now+validity, and mails the raw code to email. The supplied
// email must match the account's stored (decrypted) email.
//
// The row is written before the mail goes out; if the send fails the row
// is deleted again and the issuance fails, so no code is ever stored while
// pretending to have been delivered — and none is delivered without a row
// to verify it against.
func (s *RecoveryService) Issue(ctx context.Context, userID, email string) error {
	if userID == "" || email == "" {
		return fmt.Errorf("%w: user id and email are required", common.ErrorInvalidArgument)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	storedEmail, err := s.cipher.Decrypt(user.Email)
	if err != nil {
		return err
	}
	if storedEmail != email {
		return fmt.Errorf("%w: email does not match the registered address", common.ErrorInvalidArgument)
	}

	code, err := cryptox.GenerateOtpCode()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	otpHash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	now := time.Now()
	otp := &models.PasswordOtp{
		ID:        uuid.NewString(),
		UserID:    userID,
		OtpHash:   otpHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpValidity),
	}

	if err := s.repomanager.Otps(s.db).Create(ctx, otp); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	if err := s.mailer.Send(ctx, email, otpMailSubject, "Your OTP is: "+code); err != nil {
		// Compensate: an undeliverable code must not stay verifiable.
		if _, derr := s.repomanager.Otps(s.db).DeleteByID(ctx, otp.ID); derr != nil {
			s.logger.Error(ctx, "otp compensation delete failed", "otp_id", otp.ID, "error", derr)
		}
		return fmt.Errorf("%w: otp delivery failed: %v", common.ErrorInternal, err)
	}

	return nil
}

// Verify checks candidate code against the newest OTP row for userID.
//
//   - no row: common.ErrorNotFound
//   - newest row expired: the row is deleted, common.ErrorOtpExpired
//   - hash mismatch: the row is kept (retry stays possible within the
//     window), common.ErrorInvalidCredential
//   - match: every OTP row of the user is removed and Verify succeeds
//
// Consumption is a conditional delete of the matched row inside a
// transaction: of two concurrent calls with the correct code, exactly one
// deletes the row and succeeds; the other sees zero rows affected and
// fails with common.ErrorNotFound.
func (s *RecoveryService) Verify(ctx context.Context, userID, code string) error {
	if userID == "" || code == "" {
		return fmt.Errorf("%w: user id and code are required", common.ErrorInvalidArgument)
	}

	otp, err := s.repomanager.Otps(s.db).FindLatest(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		// A store timeout is a retryable failure, not "OTP invalid".
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	if otp.ExpiresAt.Before(time.Now()) {
		if _, err := s.repomanager.Otps(s.db).DeleteByID(ctx, otp.ID); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
		}
		return common.ErrorOtpExpired
	}

	ok, err := s.hasher.Verify(otp.OtpHash, code)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return common.ErrorInvalidCredential
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Otps(tx)

		n, err := repo.DeleteByID(ctx, otp.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			// A concurrent verify consumed the code first.
			return common.ErrorNotFound
		}

		return repo.DeleteAllForUser(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	return nil
}

// Sweep deletes every expired OTP row across all users and returns the
// count. It only deletes, so it commutes with concurrent issues and
// verifies. App runs it on a fixed schedule; it is also safe to invoke
// manually.
func (s *RecoveryService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Otps(s.db).DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return n, nil
}
