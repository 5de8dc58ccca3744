// Package passwords verifies and creates member credentials. Two schemes
// exist: the legacy salted SHA-1 digest inherited from the old member
// register, and bcrypt, which every new credential uses.
package passwords

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
var ErrPasswordTooLong = errors.New("password is longer than 72 bytes")

// Credential is what gets persisted for a password.
type Credential struct {
	Scheme models.PasswordScheme
	Salt   string
	Hash   string
}

type Hasher struct {
	legacySecret string
	cost         int
}

// NewHasher returns a Hasher that mixes legacySecret into legacy digests and
// creates bcrypt hashes at cost. Costs outside bcrypt's range fall back to
// bcrypt.DefaultCost.
func NewHasher(legacySecret string, cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{legacySecret: legacySecret, cost: cost}
}

// LegacyHash computes hex(sha1(salt + password + secret)).
func (h *Hasher) LegacyHash(salt, password string) string {
	sum := sha1.Sum([]byte(salt + password + h.legacySecret))
	return hex.EncodeToString(sum[:])
}

// Verify checks presented against the stored credential. It never fails:
// a mismatch, an unknown scheme or a malformed hash all yield false.
func (h *Hasher) Verify(presented string, scheme models.PasswordScheme, salt, hash string) bool {
	switch scheme {
	case models.SchemeLegacy:
		if hash == "" {
			return false
		}
		computed := h.LegacyHash(salt, presented)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
	case models.SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
	default:
		return false
	}
}

// CreateCredential hashes password with bcrypt.
func (h *Hasher) CreateCredential(password string) (Credential, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Credential{}, ErrPasswordTooLong
		}
		return Credential{}, fmt.Errorf("bcrypt: %w", err)
	}

	return Credential{
		Scheme: models.SchemeBcrypt,
		Salt:   models.LegacySaltSentinel,
		Hash:   string(b),
	}, nil
}

// Cost is the bcrypt work factor new credentials are created with.
func (h *Hasher) Cost() int { return h.cost }
