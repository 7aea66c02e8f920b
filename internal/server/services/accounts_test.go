package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/server/models"
)

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tk := newTestTokenizer(t)
	cipher := newTestCipher(t)
	rm := newFakeRepoManager()
	identity := NewIdentityService(db, rm, tk)
	s := NewAccountService(db, rm, identity, tk, cipher, newTestConfig())

	user, err := s.Register(context.Background(), "alice", "user@example.com", "1234567899", "Str0ng#pass")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}

	// stored PII must be encrypted, not plaintext
	if user.Email == "user@example.com" {
		t.Fatalf("email stored in plaintext")
	}
	decrypted, err := cipher.Decrypt(user.Email)
	if err != nil || decrypted != "user@example.com" {
		t.Fatalf("stored email does not decrypt back: %v %q", err, decrypted)
	}

	// the lookup-token row must resolve the raw identifiers
	if len(rm.t.rows) != 1 {
		t.Fatalf("expected one token row, got %d", len(rm.t.rows))
	}
	row := rm.t.rows[0]
	if row.UserID != user.ID {
		t.Fatalf("token row bound to wrong user: %+v", row)
	}
	if row.EmailToken != tk.Tokenize("user@example.com") || row.PhoneToken != tk.Tokenize("1234567899") {
		t.Fatalf("unexpected lookup tokens: %+v", row)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	cases := []struct {
		name     string
		username string
		email    string
		phone    string
		password string
	}{
		{"short username", "al", "user@example.com", "1234567899", "Str0ng#pass"},
		{"bad email", "alice", "not-an-email", "1234567899", "Str0ng#pass"},
		{"bad phone", "alice", "user@example.com", "12345", "Str0ng#pass"},
		{"short password", "alice", "user@example.com", "1234567899", "S#p1"},
		{"no uppercase", "alice", "user@example.com", "1234567899", "str0ng#pass"},
		{"no digit", "alice", "user@example.com", "1234567899", "Strong#pass"},
		{"no symbol", "alice", "user@example.com", "1234567899", "Str0ngpass"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.username, tc.email, tc.phone, tc.password)
			if !errors.Is(err, common.ErrorInvalidArgument) {
				t.Fatalf("want common.ErrorInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRegister_IdentifierTaken(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	rm.t.rows = append(rm.t.rows, &models.Token{
		UserID:     "u-1",
		EmailToken: tk.Tokenize("user@example.com"),
		PhoneToken: tk.Tokenize("0000000000"),
	})
	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	_, err := s.Register(context.Background(), "alice", "user@example.com", "1234567899", "Str0ng#pass")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestRegister_RaceOnUniqueIndex(t *testing.T) {
	// The pre-check passes but the insert loses to a concurrent signup.
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	rm.t.createErr = common.ErrorAlreadyExists
	identity := NewIdentityService(db, rm, tk)
	s := NewAccountService(db, rm, identity, tk, newTestCipher(t), newTestConfig())

	_, err := s.Register(context.Background(), "alice", "user@example.com", "1234567899", "Str0ng#pass")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func registerFixture(t *testing.T, rm *fakeRepoManager, email, phone, password string) string {
	t.Helper()

	tk := newTestTokenizer(t)
	cipher := newTestCipher(t)
	var hasher cryptox.PasswordHasher

	digest, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	encEmail, err := cipher.Encrypt(email)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	user := &models.User{ID: "u-1", Username: "alice", Email: encEmail, PasswordHash: digest}
	rm.u.users[user.ID] = user
	rm.t.rows = append(rm.t.rows, &models.Token{
		UserID:     user.ID,
		EmailToken: tk.Tokenize(email),
		PhoneToken: tk.Tokenize(phone),
	})
	return user.ID
}

func TestLogin_Success(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	userID := registerFixture(t, rm, "user@example.com", "1234567899", "Str0ng#pass")

	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	session, err := s.Login(context.Background(), "user@example.com", "Str0ng#pass")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if session.UserID != userID {
		t.Fatalf("unexpected user id: %s", session.UserID)
	}
	if session.AccessToken == "" {
		t.Fatalf("expected a signed access token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	registerFixture(t, rm, "user@example.com", "1234567899", "Str0ng#pass")

	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	_, err := s.Login(context.Background(), "user@example.com", "Wr0ng#pass")
	if !errors.Is(err, common.ErrorInvalidCredential) {
		t.Fatalf("want common.ErrorInvalidCredential, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()

	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	_, err := s.Login(context.Background(), "ghost@example.com", "Str0ng#pass")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestLogin_MissingInput(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	if _, err := s.Login(context.Background(), "", "Str0ng#pass"); !errors.Is(err, common.ErrorInvalidArgument) {
		t.Fatalf("want common.ErrorInvalidArgument, got %v", err)
	}
	if _, err := s.Login(context.Background(), "user@example.com", ""); !errors.Is(err, common.ErrorInvalidArgument) {
		t.Fatalf("want common.ErrorInvalidArgument, got %v", err)
	}
}

func TestUpdatePassword_Success(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	userID := registerFixture(t, rm, "user@example.com", "1234567899", "Str0ng#pass")
	oldDigest := rm.u.users[userID].PasswordHash

	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	if err := s.UpdatePassword(context.Background(), userID, "N3w#password"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if rm.u.users[userID].PasswordHash == oldDigest {
		t.Fatalf("password hash was not replaced")
	}

	var hasher cryptox.PasswordHasher
	ok, err := hasher.Verify(rm.u.users[userID].PasswordHash, "N3w#password")
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}
}

func TestUpdatePassword_WeakPassword(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	err := s.UpdatePassword(context.Background(), "u-1", "weak")
	if !errors.Is(err, common.ErrorInvalidArgument) {
		t.Fatalf("want common.ErrorInvalidArgument, got %v", err)
	}
}

func TestUpdatePassword_UnknownUser(t *testing.T) {
	tk := newTestTokenizer(t)
	rm := newFakeRepoManager()
	identity := NewIdentityService(nil, rm, tk)
	s := NewAccountService(nil, rm, identity, tk, newTestCipher(t), newTestConfig())

	err := s.UpdatePassword(context.Background(), "ghost", "N3w#password")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
