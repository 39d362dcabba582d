// Package password hashes local account passwords with Argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	MinLength = 8

	saltLen = 16
	prefix  = "$argon2id$v=19$"
)

// Params are the Argon2id cost settings recorded in every encoded hash.
type Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultParams is what new hashes use. Hashes made with anything else are
// reported as stale by Check.
var DefaultParams = Params{Memory: 64 * 1024, Time: 1, Threads: 4, KeyLen: 32}

var encoding = base64.RawStdEncoding

// Acceptable reports whether a new password meets the length rule.
func Acceptable(password string) bool {
	return len([]rune(strings.TrimSpace(password))) >= MinLength
}

// Hash encodes password with DefaultParams and a random salt.
func Hash(password string) (string, error) {
	return hashWith(DefaultParams, password)
}

func hashWith(p Params, password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s", prefix, p.Memory, p.Time, p.Threads,
		encoding.EncodeToString(salt), encoding.EncodeToString(key)), nil
}

// Verify reports whether password matches encoded.
func Verify(password, encoded string) bool {
	ok, _ := Check(password, encoded)
	return ok
}

// Check verifies password and also reports whether encoded was produced
// with settings other than DefaultParams, so callers can rehash on login.
func Check(password, encoded string) (ok bool, stale bool) {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, false
	}
	derived := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	if subtle.ConstantTimeCompare(key, derived) != 1 {
		return false, false
	}
	return true, p != DefaultParams
}

func decode(encoded string) (Params, []byte, []byte, error) {
	rest, found := strings.CutPrefix(encoded, prefix)
	if !found {
		return Params{}, nil, nil, fmt.Errorf("password: unsupported hash format")
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return Params{}, nil, nil, fmt.Errorf("password: malformed hash")
	}

	var p Params
	if _, err := fmt.Sscanf(fields[0], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, fmt.Errorf("password: malformed params: %w", err)
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return Params{}, nil, nil, fmt.Errorf("password: zero cost params")
	}
	salt, err := encoding.DecodeString(fields[1])
	if err != nil {
		return Params{}, nil, nil, err
	}
	key, err := encoding.DecodeString(fields[2])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, fmt.Errorf("password: malformed key")
	}
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
