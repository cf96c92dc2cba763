package mysql

import (
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
)

// accountRow maps the columns of acore_auth.account this service touches.
// The remaining columns keep their schema defaults on insert.
type accountRow struct {
	ID            uint32     `gorm:"column:id;primaryKey;autoIncrement"`
	Username      string     `gorm:"column:username"`
	Salt          []byte     `gorm:"column:salt"`
	Verifier      []byte     `gorm:"column:verifier"`
	Email         string     `gorm:"column:email"`
	RegMail       string     `gorm:"column:reg_mail"`
	JoinDate      time.Time  `gorm:"column:joindate"`
	LastIP        string     `gorm:"column:last_ip"`
	LastAttemptIP string     `gorm:"column:last_attempt_ip"`
	FailedLogins  uint32     `gorm:"column:failed_logins"`
	Locked        bool       `gorm:"column:locked"`
	LastLogin     *time.Time `gorm:"column:last_login"`
	Online        bool       `gorm:"column:online"`
	Expansion     uint8      `gorm:"column:expansion"`
}

func (accountRow) TableName() string { return "account" }

type accountAccessRow struct {
	ID      uint32 `gorm:"column:id;primaryKey"`
	GMLevel uint8  `gorm:"column:gmlevel"`
	RealmID int32  `gorm:"column:RealmID;primaryKey"`
}

func (accountAccessRow) TableName() string { return "account_access" }

func toAccountRow(a domain.Account) accountRow {
	return accountRow{
		ID:            a.ID,
		Username:      a.Username,
		Salt:          a.Salt,
		Verifier:      a.Verifier,
		Email:         a.Email,
		RegMail:       a.RegMail,
		JoinDate:      a.JoinDate,
		LastIP:        a.LastIP,
		LastAttemptIP: a.LastAttemptIP,
		FailedLogins:  a.FailedLogins,
		Locked:        a.Locked,
		LastLogin:     a.LastLogin,
		Online:        a.Online,
		Expansion:     a.Expansion,
	}
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		RegMail:       r.RegMail,
		Salt:          r.Salt,
		Verifier:      r.Verifier,
		JoinDate:      r.JoinDate,
		LastIP:        r.LastIP,
		LastAttemptIP: r.LastAttemptIP,
		FailedLogins:  r.FailedLogins,
		Locked:        r.Locked,
		LastLogin:     r.LastLogin,
		Online:        r.Online,
		Expansion:     r.Expansion,
	}
}
