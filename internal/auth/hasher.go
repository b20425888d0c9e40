// Package auth holds the password primitives used by login.
package auth

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost for new hashes.
const DefaultCost = bcrypt.DefaultCost

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// ErrInvalidHash is wrapped by Verify when the stored value cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

// PasswordHasher hashes new passwords and verifies candidates against stored hashes.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and
	// (false, err) when hash is malformed. Callers must treat an error as a
	// failed verification.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade reports whether hash was produced by an older scheme and
	// should be replaced after the next successful login.
	NeedsUpgrade(hash string) bool
}

// BcryptHasher writes bcrypt hashes and also verifies the werkzeug formats
// ("pbkdf2:..." and "scrypt:...") found in user tables populated with
// werkzeug's generate_password_hash.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	switch {
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, oops.Code("AUTH_INVALID_HASH").With("scheme", "bcrypt").Wrapf(ErrInvalidHash, "%s", err.Error())
	case strings.HasPrefix(hash, "pbkdf2:"), strings.HasPrefix(hash, "scrypt"):
		return verifyWerkzeug(password, hash)
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidHash, "unrecognised hash scheme")
	}
}

func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	if !isBcrypt(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < h.cost
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
