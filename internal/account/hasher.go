// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

const argon2Prefix = "$argon2id$"

// DummySecretHash is verified against when no account matches, so a miss
// costs the same as a wrong secret. It never matches any secret.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const DummySecretHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var (
	// ErrEmptySecret is returned when attempting to hash an empty secret.
	ErrEmptySecret = errors.New("secret cannot be empty")

	// ErrUnsupportedHash is returned for a stored secret that is not argon2id
	// while legacy plaintext comparison is disabled.
	ErrUnsupportedHash = errors.New("stored secret is not an argon2id hash")
)

// SecretHasher hashes and verifies credential secrets.
type SecretHasher interface {
	// Hash produces an argon2id hash of the secret.
	Hash(secret string) (string, error)

	// Verify checks if the secret matches the stored value.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on an
	// unusable stored value.
	Verify(secret, stored string) (bool, error)

	// NeedsUpgrade returns true if the stored value should be rehashed.
	NeedsUpgrade(stored string) bool
}

// Argon2idHasher implements SecretHasher using argon2id.
type Argon2idHasher struct {
	legacyPlaintext bool
}

// HasherOption configures an Argon2idHasher.
type HasherOption func(*Argon2idHasher)

// WithLegacyPlaintext lets stored values that are not argon2id hashes verify
// by constant-time comparison with the secret. Such rows predate hashing.
func WithLegacyPlaintext(enabled bool) HasherOption {
	return func(h *Argon2idHasher) {
		h.legacyPlaintext = enabled
	}
}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher(opts ...HasherOption) *Argon2idHasher {
	h := &Argon2idHasher{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash produces an argon2id hash of the secret in PHC string format.
func (h *Argon2idHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", oops.Code("AUTH_EMPTY_SECRET").Wrap(ErrEmptySecret)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the secret matches the stored value.
func (h *Argon2idHasher) Verify(secret, stored string) (bool, error) {
	if !strings.HasPrefix(stored, argon2Prefix) {
		if !h.legacyPlaintext {
			return false, oops.Code("AUTH_UNSUPPORTED_HASH").Wrap(ErrUnsupportedHash)
		}
		return subtle.ConstantTimeCompare([]byte(secret), []byte(stored)) == 1, nil
	}

	params, salt, expected, err := decodeArgon2id(stored)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(secret), salt, params.time, params.memory, params.threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NeedsUpgrade returns true if the stored value is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(stored string) bool {
	return !strings.HasPrefix(stored, argon2Prefix)
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").With("version", version).Errorf("unsupported argon2 version")
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	p.threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}
	return p, salt, key, nil
}

var _ SecretHasher = (*Argon2idHasher)(nil)
