package models

import (
	"strings"
	"time"
)

// LegacySaltSentinel is the value stored in the salt column once a user's
// password has been rehashed with bcrypt.
const LegacySaltSentinel = "0"

// Membership values. Only NonMember is treated specially by the service.
const (
	MembershipNonMember  = "ei-jasen"
	MembershipMember     = "jasen"
	MembershipSupporting = "kannatusjasen"
	MembershipHonorary   = "kunniajasen"
	MembershipExternal   = "ulkojasen"
)

// PasswordScheme selects how a stored credential is verified.
type PasswordScheme int

const (
	// SchemeLegacy is salted SHA-1 with the application secret.
	SchemeLegacy PasswordScheme = iota
	// SchemeBcrypt is bcrypt; the hash carries its own salt and cost.
	SchemeBcrypt
)

func (s PasswordScheme) String() string {
	if s == SchemeBcrypt {
		return "bcrypt"
	}
	return "legacy"
}

// SchemeFromSalt decodes the scheme from the historic salt column.
func SchemeFromSalt(salt string) PasswordScheme {
	if salt == LegacySaltSentinel {
		return SchemeBcrypt
	}
	return SchemeLegacy
}

// User is a member record. Credential fields never leave the server.
type User struct {
	ID             int64          `json:"id"`
	Username       string         `json:"username"`
	Name           string         `json:"name"`
	Screenname     string         `json:"screen_name"`
	Email          string         `json:"email"`
	Residence      string         `json:"residence"`
	Phone          string         `json:"phone"`
	HYYMember      bool           `json:"hyy_member"`
	Membership     string         `json:"membership"`
	Role           Role           `json:"role"`
	Salt           string         `json:"-"`
	HashedPassword string         `json:"-"`
	PasswordScheme PasswordScheme `json:"-"`
	CreatedAt      time.Time      `json:"created"`
	ModifiedAt     time.Time      `json:"modified"`
	Deleted        bool           `json:"deleted"`
}

// IsMember reports whether the user holds any kind of membership.
func (u *User) IsMember() bool {
	return u.Membership != "" && u.Membership != MembershipNonMember
}

// UserFilter narrows user listings. The zero value lists every non-deleted user.
type UserFilter struct {
	MembersOnly    bool
	NonMembersOnly bool
	// Revoked lists soft-deleted users instead of live ones.
	Revoked bool
}

// ParseUserFilter reads a comma separated condition list such as
// "member,revoked". Unknown conditions are ignored.
func ParseUserFilter(s string) UserFilter {
	var f UserFilter
	for _, c := range strings.Split(s, ",") {
		switch strings.TrimSpace(c) {
		case "member":
			f.MembersOnly = true
		case "nonmember":
			f.NonMembersOnly = true
		case "revoked":
			f.Revoked = true
		}
	}
	return f
}
