package sqlite

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
)

func (s *Store) FindUserToken(ctx context.Context, accountID uint32) (domain.UserToken, error) {
	var t domain.UserToken
	err := s.db.QueryRowContext(ctx, `
		SELECT id, activation_token, recovery_token, created_at, updated_at
		FROM users WHERE id = ?`, accountID,
	).Scan(&t.AccountID, &t.ActivationToken, &t.RecoveryToken, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.UserToken{}, mapNotFound(err)
	}
	return t, nil
}

func (s *Store) UpsertUserToken(ctx context.Context, accountID uint32, f domain.UserTokenFields) error {
	now := s.now()

	// COALESCE keeps the stored value for fields left nil
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, activation_token, recovery_token, created_at, updated_at)
		VALUES (?, COALESCE(?, ''), COALESCE(?, ''), ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			activation_token = COALESCE(?, users.activation_token),
			recovery_token   = COALESCE(?, users.recovery_token),
			updated_at       = excluded.updated_at`,
		accountID, f.ActivationToken, f.RecoveryToken, now, now,
		f.ActivationToken, f.RecoveryToken,
	)
	return err
}

func (s *Store) ConsumeUserToken(ctx context.Context, accountID uint32, kind domain.TokenKind, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var column string
	switch kind {
	case domain.TokenActivation:
		column = "activation_token"
	case domain.TokenRecovery:
		column = "recovery_token"
	default:
		return false, fmt.Errorf("sqlite: unknown token kind %q", kind)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = '', updated_at = ? WHERE id = ? AND `+column+` = ?`,
		s.now(), accountID, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
