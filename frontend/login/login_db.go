package login

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"depalletconsole/infrastructure/argon"
	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/models"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

func authenticateOperator(ctx context.Context, db *sqlite.DB, username, password string) (models.Operator, error) {
	var op models.Operator
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&op).
			Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Operator{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Operator{}, err
	}

	ok, err := argon.ComparePasswordAndHash(password, op.PasswordHash)
	if err != nil {
		return models.Operator{}, err
	}
	if !ok {
		return models.Operator{}, ErrInvalidCredentials
	}
	if argon.NeedsRehash(op.PasswordHash, argon.DefaultParams) {
		if err := rehashPassword(ctx, db, op.ID, password); err != nil {
			slog.Warn("rehash operator password failed", slog.String("username", op.Username), slog.Any("err", err))
		}
	}
	return op, nil
}

func rehashPassword(ctx context.Context, db *sqlite.DB, operatorID int64, password string) error {
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Operator)(nil)).
			Set("password_hash = ?", hash).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", operatorID).
			Exec(ctx)
		return err
	})
}

func persistSession(ctx context.Context, db *sqlite.DB, s models.Session) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.Session{
			ID:         s.ID,
			OperatorID: s.OperatorID,
			ExpiresAt:  s.ExpiresAt,
		}).Exec(ctx)
		return err
	})
}

// DeleteSessionByToken removes a session row; a blank token is a no-op.
func DeleteSessionByToken(ctx context.Context, db *sqlite.DB, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id = ?", token).Exec(ctx)
		return err
	})
}

// LoadSessionByToken returns a live session with its operator. Expired
// sessions are deleted and reported as sql.ErrNoRows.
func LoadSessionByToken(ctx context.Context, db *sqlite.DB, token string) (models.Session, error) {
	var s models.Session
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&s).
			Relation("Operator").
			Where("s.id = ?", token).
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return models.Session{}, err
	}
	if s.Expired() {
		_ = DeleteSessionByToken(ctx, db, token)
		return models.Session{}, sql.ErrNoRows
	}
	return s, nil
}

// PurgeExpiredSessions deletes sessions that expired before now.
func PurgeExpiredSessions(ctx context.Context, db *sqlite.DB, now time.Time) (int64, error) {
	var n int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Session)(nil)).Where("expires_at < ?", now).Exec(ctx)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}

// UpsertOperator creates the operator or resets its password.
func UpsertOperator(ctx context.Context, db *sqlite.DB, username, rawPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if err := ValidatePasswordPolicy(rawPassword); err != nil {
		return err
	}
	hash, err := argon.CreateHash(rawPassword, argon.DefaultParams)
	if err != nil {
		return err
	}

	now := time.Now()
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&models.Operator{Username: username, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}).
			On("CONFLICT (username) DO UPDATE").
			Set("password_hash = EXCLUDED.password_hash").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}
