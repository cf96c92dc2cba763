package mysql

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
)

func (s *Store) findAccount(ctx context.Context, query string, args ...any) (domain.Account, error) {
	var row accountRow
	if err := s.db.WithContext(ctx).Where(query, args...).Order("id").Take(&row).Error; err != nil {
		return domain.Account{}, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.findAccount(ctx, "username = ?", username)
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	if email == "" {
		return domain.Account{}, store.ErrNotFound
	}
	return s.findAccount(ctx, "email = ?", email)
}

func (s *Store) FindAccountByID(ctx context.Context, id uint32) (domain.Account, error) {
	return s.findAccount(ctx, "id = ?", id)
}

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if a.JoinDate.IsZero() {
		a.JoinDate = time.Now().UTC()
	}
	if a.LastIP == "" {
		a.LastIP = domain.DefaultLastIP
	}
	if a.LastAttemptIP == "" {
		a.LastAttemptIP = domain.DefaultLastIP
	}

	row := toAccountRow(a)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Account{}, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateAccountCredentials(ctx context.Context, id uint32, salt, verifier []byte) error {
	return expectAffected(s.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"salt": salt, "verifier": verifier}))
}

func (s *Store) UpdateAccountEmailAndLock(ctx context.Context, id uint32, email string) error {
	return expectAffected(s.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"email": email, "locked": 1}))
}

func (s *Store) UpdateAccountLocked(ctx context.Context, id uint32, locked bool) error {
	return expectAffected(s.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ?", id).
		Update("locked", locked))
}

func (s *Store) FindAccessLevel(ctx context.Context, id uint32, realmID int32) (domain.AccessLevel, error) {
	var rows []accountAccessRow
	err := s.db.WithContext(ctx).
		Where("id = ? AND RealmID IN ?", id, []int32{realmID, -1}).
		Find(&rows).Error
	if err != nil {
		return 0, mapError(err)
	}
	if len(rows) == 0 {
		return 0, store.ErrNotFound
	}

	var level uint8
	for _, r := range rows {
		level = max(level, r.GMLevel)
	}
	return domain.AccessLevel(level), nil
}
