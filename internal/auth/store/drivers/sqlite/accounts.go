package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
)

const accountColumns = `id, username, email, reg_mail, salt, verifier, joindate,
	last_ip, last_attempt_ip, failed_logins, locked, last_login, online, expansion`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a         domain.Account
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.RegMail, &a.Salt, &a.Verifier, &a.JoinDate,
		&a.LastIP, &a.LastAttemptIP, &a.FailedLogins, &a.Locked, &lastLogin, &a.Online, &a.Expansion,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.LastLogin = mapNullTimePtr(lastLogin)
	return a, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE username = ?`, username))
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE email = ? AND email <> '' ORDER BY id LIMIT 1`, email))
}

func (s *Store) FindAccountByID(ctx context.Context, id uint32) (domain.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = ?`, id))
}

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if a.JoinDate.IsZero() {
		a.JoinDate = s.now()
	}
	if a.LastIP == "" {
		a.LastIP = domain.DefaultLastIP
	}
	if a.LastAttemptIP == "" {
		a.LastAttemptIP = domain.DefaultLastIP
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO account (username, email, reg_mail, salt, verifier, joindate,
			last_ip, last_attempt_ip, failed_logins, locked, last_login, online, expansion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Username, a.Email, a.RegMail, a.Salt, a.Verifier, a.JoinDate,
		a.LastIP, a.LastAttemptIP, a.FailedLogins, a.Locked, mapOptionalTime(a.LastLogin), a.Online, a.Expansion,
	)
	if err != nil {
		return domain.Account{}, mapUnique(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Account{}, err
	}
	a.ID = uint32(id) // #nosec G115 - account ids are 32 bit in the game schema
	return a, nil
}

func (s *Store) UpdateAccountCredentials(ctx context.Context, id uint32, salt, verifier []byte) error {
	return expectAffected(s.db.ExecContext(ctx,
		`UPDATE account SET salt = ?, verifier = ? WHERE id = ?`, salt, verifier, id))
}

func (s *Store) UpdateAccountEmailAndLock(ctx context.Context, id uint32, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE account SET email = ?, locked = 1 WHERE id = ?`, email, id)
	if err != nil {
		return mapUnique(err)
	}
	return expectAffected(res, nil)
}

func (s *Store) UpdateAccountLocked(ctx context.Context, id uint32, locked bool) error {
	return expectAffected(s.db.ExecContext(ctx,
		`UPDATE account SET locked = ? WHERE id = ?`, locked, id))
}

func (s *Store) FindAccessLevel(ctx context.Context, id uint32, realmID int32) (domain.AccessLevel, error) {
	var level sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(gmlevel) FROM account_access WHERE id = ? AND RealmID IN (?, -1)`, id, realmID,
	).Scan(&level)
	if err != nil {
		return 0, err
	}
	if !level.Valid {
		return 0, store.ErrNotFound
	}
	return domain.AccessLevel(level.Int64), nil // #nosec G115 - gmlevel is a tinyint
}

// GrantAccess sets the gmlevel of an account for realmID. Only used to seed
// development databases; production grants are managed in-game.
func (s *Store) GrantAccess(ctx context.Context, id uint32, level domain.AccessLevel, realmID int32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_access (id, gmlevel, RealmID) VALUES (?, ?, ?)
		ON CONFLICT (id, RealmID) DO UPDATE SET gmlevel = excluded.gmlevel`,
		id, level, realmID)
	return err
}
