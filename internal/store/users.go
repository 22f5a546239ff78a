package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

const userColumns = `id, email, username, full_name, password_hash, role, status, referral_code,
	referred_by, newsletter_opt_in, first_deposit_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u      domain.User
		role   string
		status string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &role, &status,
		&u.ReferralCode, &u.ReferredBy, &u.NewsletterOptIn, &u.FirstDepositAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// CreateUser inserts the user with a zeroed balances row, records the registration and
// enqueues user.registered in one transaction.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User, ipAddress string) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (id, email, username, full_name, password_hash, role, status, referral_code, referred_by, newsletter_opt_in)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`, user.ID, user.Email, user.Username, user.FullName, user.PasswordHash, string(user.Role),
			string(user.Status), user.ReferralCode, user.ReferredBy, user.NewsletterOptIn,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if code, constraint := pgErrorCode(err); code == uniqueViolation {
				switch constraint {
				case "users_email_key":
					return ErrEmailTaken
				case "users_username_key":
					return ErrUsernameTaken
				case "users_referral_code_key":
					return ErrReferralCodeTaken
				}
			}
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO balances (user_id) VALUES ($1)`, user.ID); err != nil {
			return fmt.Errorf("create balances: %w", err)
		}
		if user.NewsletterOptIn {
			if err := subscribeTx(ctx, tx, user.Email, uuid.NewString()); err != nil {
				return err
			}
		}
		if err := insertActivityTx(ctx, tx, user.ID, "register", map[string]interface{}{
			"referred": user.ReferredBy != nil,
		}, ipAddress); err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventUserRegistered, domain.UserRegisteredEvent{
			UserID:       user.ID.String(),
			Email:        user.Email,
			Username:     user.Username,
			FullName:     user.FullName,
			ReferralCode: user.ReferralCode,
		})
	})
}

func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
}

// FindUserByHandle resolves a username or an email address.
func (r *PostgresRepository) FindUserByHandle(ctx context.Context, handle string) (*domain.User, error) {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "@") {
		return r.FindUserByEmail(ctx, handle)
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, strings.ToLower(handle)))
}

func (r *PostgresRepository) FindUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, strings.ToUpper(strings.TrimSpace(code))))
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) SetUserStatus(ctx context.Context, userID uuid.UUID, status domain.UserStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, userID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers pages through users, optionally filtered by a case-insensitive match on email,
// username or full name.
func (r *PostgresRepository) ListUsers(ctx context.Context, search string, opts domain.ListOptions) ([]domain.User, error) {
	opts = opts.Normalize()
	search = strings.TrimSpace(search)

	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		query += ` WHERE email LIKE $1 OR username LIKE $1 OR LOWER(full_name) LIKE $1`
	}
	args = append(args, opts.Limit, opts.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.queryIDs(ctx, `SELECT id FROM users WHERE status = 'active' ORDER BY created_at`)
}

func (r *PostgresRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.queryIDs(ctx, `SELECT id FROM users ORDER BY created_at`)
}

func (r *PostgresRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) RecordActivity(ctx context.Context, entry domain.ActivityLog) error {
	return insertActivityTx(ctx, r.db, entry.UserID, entry.Action, entry.Metadata, entry.IPAddress)
}

func (r *PostgresRepository) ListActivity(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.ActivityLog, error) {
	opts = opts.Normalize()
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, metadata::text, ip_address, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0, opts.Limit)
	for rows.Next() {
		var (
			entry    domain.ActivityLog
			metadata string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &metadata, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metadata != "" {
			_ = json.Unmarshal([]byte(metadata), &entry.Metadata)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// CreatePasswordReset replaces any outstanding reset token for the user and enqueues the
// reset email. Only the hash is persisted in password_reset_tokens.
func (r *PostgresRepository) CreatePasswordReset(ctx context.Context, user *domain.User, tokenHash, rawToken string, expiresAt time.Time) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE password_reset_tokens SET used_at = NOW()
			WHERE user_id = $1 AND used_at IS NULL
		`, user.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO password_reset_tokens (token_hash, user_id, expires_at)
			VALUES ($1, $2, $3)
		`, tokenHash, user.ID, expiresAt.UTC()); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, user.ID, "password_reset_requested", nil, ""); err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventPasswordResetRequested, domain.PasswordResetRequestedEvent{
			UserID:    user.ID.String(),
			Email:     user.Email,
			Username:  user.Username,
			Token:     rawToken,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		})
	})
}

// ResetPassword consumes a reset token and stores the new password hash.
func (r *PostgresRepository) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var (
			expiresAt time.Time
			usedAt    *time.Time
		)
		err := tx.QueryRow(ctx, `
			SELECT user_id, expires_at, used_at
			FROM password_reset_tokens
			WHERE token_hash = $1
			FOR UPDATE
		`, tokenHash).Scan(&userID, &expiresAt, &usedAt)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrResetTokenInvalid
			}
			return err
		}
		if usedAt != nil || !now.Before(expiresAt) {
			return ErrResetTokenInvalid
		}

		if _, err := tx.Exec(ctx, `UPDATE password_reset_tokens SET used_at = $2 WHERE token_hash = $1`, tokenHash, now.UTC()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash); err != nil {
			return err
		}
		return insertActivityTx(ctx, tx, userID, "password_reset", nil, "")
	})
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}
