package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daint2git/auth-service/internal/auth/domain"
)

// DBTX is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it as well.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DBTX
}

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, name, COALESCE(image, ''), COALESCE(hashed_password, ''),
		       email_verified, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, email)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Image, &user.HashedPassword,
		&user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *PostgresRepository) GetByEmailWithAccount(ctx context.Context, email string, provider domain.Provider) (*domain.User, *domain.Account, error) {
	query := `
		SELECT u.id, u.email, u.name, COALESCE(u.image, ''), COALESCE(u.hashed_password, ''),
		       u.email_verified, u.created_at, u.updated_at,
		       a.id, a.provider_account_id, a.access_token, a.refresh_token,
		       a.token_type, a.scope, a.expires_at, a.id_token
		FROM users u
		LEFT JOIN accounts a ON a.user_id = u.id AND a.provider = $2
		WHERE u.email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, email, string(provider))

	var user domain.User
	var accID, provAccountID, accessToken, refreshToken, tokenType, scope, idToken *string
	var expiresAt *int64

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Image, &user.HashedPassword,
		&user.EmailVerified, &user.CreatedAt, &user.UpdatedAt,
		&accID, &provAccountID, &accessToken, &refreshToken,
		&tokenType, &scope, &expiresAt, &idToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get user with account: %w", err)
	}

	if accID == nil {
		return &user, nil, nil
	}

	account := &domain.Account{
		ID:                *accID,
		UserID:            user.ID,
		Provider:          provider,
		ProviderAccountID: deref(provAccountID),
		AccessToken:       deref(accessToken),
		RefreshToken:      deref(refreshToken),
		TokenType:         deref(tokenType),
		Scope:             deref(scope),
		ExpiresAt:         expiresAt,
		IDToken:           deref(idToken),
	}

	return &user, account, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, name, image, hashed_password, email_verified, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
    `, user.ID, user.Email, user.Name, user.Image, user.HashedPassword,
		user.EmailVerified, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	return err
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, email string, verifiedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET email_verified = $2, updated_at = now() WHERE email = $1
	`, email, verifiedAt)
	return err
}

func (r *PostgresRepository) UpdateName(ctx context.Context, userID, name string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET name = $2, updated_at = now() WHERE id = $1
	`, userID, name)
	return err
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, user_id, provider, provider_account_id, access_token,
		                      refresh_token, token_type, scope, expires_at, id_token,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
	`, account.ID, account.UserID, string(account.Provider), account.ProviderAccountID,
		account.AccessToken, account.RefreshToken, account.TokenType, account.Scope,
		account.ExpiresAt, account.IDToken, account.CreatedAt, account.UpdatedAt)
	return err
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET provider_account_id = $3, access_token = $4, refresh_token = $5,
		    token_type = $6, scope = $7, expires_at = $8, id_token = NULLIF($9, ''),
		    updated_at = now()
		WHERE id = $1 AND provider = $2
	`, account.ID, string(account.Provider), account.ProviderAccountID,
		account.AccessToken, account.RefreshToken, account.TokenType, account.Scope,
		account.ExpiresAt, account.IDToken)
	return err
}

func (r *PostgresRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, expires) VALUES ($1, $2, $3)
	`, session.ID, session.UserID, session.Expires)
	return err
}

// GetSessionWithUser resolves a non-expired session and its owning user.
// Expired and absent sessions are both reported as (nil, nil, nil) so
// callers cannot tell them apart.
func (r *PostgresRepository) GetSessionWithUser(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	query := `
		SELECT s.id, s.user_id, s.expires, u.name
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.expires >= now()
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, token)

	var session domain.Session
	var user domain.User
	err := row.Scan(&session.ID, &session.UserID, &session.Expires, &user.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	user.ID = session.UserID

	return &session, &user, nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, token)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
