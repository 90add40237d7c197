package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"taskMateAPI/internal/account"
	"taskMateAPI/internal/apperr"
	"taskMateAPI/utils"
)

const minPasswordLength = 6

type AuthService struct {
	db *pgxpool.Pool
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{db: db}
}

// SignUp creates an account and its profile mirror in one transaction and
// returns a fresh session token.
func (s *AuthService) SignUp(ctx context.Context, req *account.SignUpRequest) (*account.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required: %w", apperr.ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, apperr.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &account.Account{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v: %w", err, apperr.ErrRemoteUnavailable)
	}
	defer tx.Rollback(ctx)

	insertAccount := `
	INSERT INTO accounts (id, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertAccount, acct.ID, acct.Email, string(hash), acct.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("an account with this email already exists: %w", apperr.ErrConflict)
		}
		log.Printf("SignUp: Failed to insert account: %v", err)
		return nil, fmt.Errorf("failed to create account: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	insertProfile := `
	INSERT INTO profiles (id, email)
	VALUES ($1, $2)
	`
	if _, err := tx.Exec(ctx, insertProfile, acct.ID, acct.Email); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("an account with this email already exists: %w", apperr.ErrConflict)
		}
		log.Printf("SignUp: Failed to insert profile: %v", err)
		return nil, fmt.Errorf("failed to create profile: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sign up: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	token, err := utils.GenerateToken(acct.ID.String())
	if err != nil {
		return nil, err
	}

	log.Printf("SignUp: Created account %s", acct.ID)
	return &account.AuthResponse{Token: token, Account: acct}, nil
}

// SignIn verifies credentials and issues a session token. Lookup misses and
// password mismatches return the same error so callers cannot probe for
// registered emails.
func (s *AuthService) SignIn(ctx context.Context, req *account.SignInRequest) (*account.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	query := `
	SELECT id, email, password_hash, created_at
	FROM accounts
	WHERE email = $1
	`

	acct := &account.Account{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&acct.ID,
		&acct.Email,
		&acct.PasswordHash,
		&acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrNotFound)
		}
		log.Printf("SignIn: Failed to fetch account: %v", err)
		return nil, fmt.Errorf("failed to fetch account: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrNotFound)
	}

	token, err := utils.GenerateToken(acct.ID.String())
	if err != nil {
		return nil, err
	}

	acct.PasswordHash = ""
	return &account.AuthResponse{Token: token, Account: acct}, nil
}

// Me returns the account for the current session.
func (s *AuthService) Me(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	query := `
	SELECT id, email, created_at
	FROM accounts
	WHERE id = $1
	`

	acct := &account.Account{}
	err := s.db.QueryRow(ctx, query, accountID).Scan(
		&acct.ID,
		&acct.Email,
		&acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch account: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return acct, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
