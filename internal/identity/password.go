// AngelaMos | 2026
// password.go

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var currentParams = argonParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// decoyHash is verified against when an email has no account so both paths
// spend the same time in argon2.
var decoyHash = mustHash("decoy-password-for-missing-accounts")

func mustHash(password string) string {
	h, err := hashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("identity: hash decoy password: %v", err))
	}
	return h
}

// hashPassword returns a PHC formatted argon2id string.
func hashPassword(password string) (string, error) {
	p := currentParams

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// checkPassword reports whether password matches encoded, and whether the
// stored hash was produced with outdated parameters.
func checkPassword(password, encoded string) (match, stale bool, err error) {
	p, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, false, nil
	}

	stale = p.Memory != currentParams.Memory ||
		p.Time != currentParams.Time ||
		p.Threads != currentParams.Threads ||
		p.KeyLen != currentParams.KeyLen

	return true, stale, nil
}

func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", errMalformedHash, fields[2])
	}

	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params %q", errMalformedHash, fields[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt", errMalformedHash)
	}

	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", errMalformedHash)
	}

	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(key)) //nolint:gosec // argon2 keys are a few dozen bytes

	return p, salt, key, nil
}
