package domain

import "time"

// DefaultExpansion is Wrath of the Lich King, the expansion new accounts are
// created with.
const DefaultExpansion uint8 = 2

// DefaultLastIP is written into new accounts since the web service never
// sees the game client's address.
const DefaultLastIP = "127.0.0.1"

// Account mirrors a row of the AzerothCore acore_auth.account table.
type Account struct {
	ID            uint32
	Username      string // upper-cased
	Email         string
	RegMail       string
	Salt          []byte // 32 bytes, written together with Verifier
	Verifier      []byte // 32 bytes, little-endian
	JoinDate      time.Time
	LastIP        string
	LastAttemptIP string
	FailedLogins  uint32
	Locked        bool
	LastLogin     *time.Time
	Online        bool
	Expansion     uint8
}

// AccessLevel is the GM level granted through acore_auth.account_access.
// Zero means a regular player.
type AccessLevel uint8
