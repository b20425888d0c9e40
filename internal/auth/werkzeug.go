package auth

import (
	"crypto/sha1" //nolint:gosec // pbkdf2:sha1 hashes exist in legacy tables
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Defaults werkzeug applies when the method string omits parameters.
const (
	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptN          = 1 << 15
	werkzeugScryptR          = 8
	werkzeugScryptP          = 1
	werkzeugScryptKeyLen     = 64
)

// verifyWerkzeug checks "<method>$<salt>$<hex digest>" values where method is
// "pbkdf2[:alg[:iterations]]" or "scrypt[:n:r:p]". The salt is used as raw
// ASCII bytes, not decoded.
func verifyWerkzeug(password, stored string) (bool, error) {
	invalid := oops.Code("AUTH_INVALID_HASH").With("scheme", "werkzeug")

	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return false, invalid.Wrapf(ErrInvalidHash, "expected method$salt$hash")
	}
	method, salt := parts[0], []byte(parts[1])

	expected, err := hex.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return false, invalid.Wrapf(ErrInvalidHash, "digest is not hex")
	}

	args := strings.Split(method, ":")
	var computed []byte

	switch args[0] {
	case "pbkdf2":
		alg := "sha256"
		iterations := werkzeugPBKDF2Iterations
		if len(args) > 3 {
			return false, invalid.Wrapf(ErrInvalidHash, "too many pbkdf2 arguments")
		}
		if len(args) >= 2 {
			alg = args[1]
		}
		if len(args) == 3 {
			iterations, err = strconv.Atoi(args[2])
			if err != nil || iterations <= 0 {
				return false, invalid.Wrapf(ErrInvalidHash, "bad pbkdf2 iteration count")
			}
		}
		newHash, size, ok := pbkdf2Digest(alg)
		if !ok {
			return false, invalid.With("alg", alg).Wrapf(ErrInvalidHash, "unsupported pbkdf2 digest")
		}
		computed = pbkdf2.Key([]byte(password), salt, iterations, size, newHash)

	case "scrypt":
		n, r, p := werkzeugScryptN, werkzeugScryptR, werkzeugScryptP
		switch len(args) {
		case 1:
		case 4:
			vals := make([]int, 3)
			for i, a := range args[1:] {
				vals[i], err = strconv.Atoi(a)
				if err != nil || vals[i] <= 0 {
					return false, invalid.Wrapf(ErrInvalidHash, "bad scrypt parameter")
				}
			}
			n, r, p = vals[0], vals[1], vals[2]
		default:
			return false, invalid.Wrapf(ErrInvalidHash, "scrypt takes 3 parameters")
		}
		computed, err = scrypt.Key([]byte(password), salt, n, r, p, werkzeugScryptKeyLen)
		if err != nil {
			return false, invalid.Wrapf(ErrInvalidHash, "scrypt: %s", err.Error())
		}

	default:
		return false, invalid.Wrapf(ErrInvalidHash, "unsupported method")
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func pbkdf2Digest(alg string) (func() hash.Hash, int, bool) {
	switch alg {
	case "sha1":
		return sha1.New, sha1.Size, true
	case "sha256":
		return sha256.New, sha256.Size, true
	case "sha512":
		return sha512.New, sha512.Size, true
	default:
		return nil, 0, false
	}
}
