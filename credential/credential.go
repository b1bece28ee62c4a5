// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2 tuning parameters: 64 MiB of memory and 4 lanes, as in the
// RFC 9106 "low memory" option, but a single pass where that option
// uses three. Appropriate for a host process that also does capture
// and encoding work and cannot dedicate hundreds of megabytes to
// password hashing.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// Hash returns a self-describing argon2id hash of password, suitable
// for storing in Config.PasswordHash. An empty password hashes to an
// empty string, matching the "no password configured" sentinel used
// throughout the external interfaces.
func Hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("credential: generating salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedSum := base64.RawStdEncoding.EncodeToString(sum)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, encodedSalt, encodedSum), nil
}

// Verify reports whether password matches hash. It dispatches on the
// hash's embedded family identifier, so hashes produced by either
// Hash (argon2id) or an external bcrypt provisioning step verify
// correctly. An empty hash never matches any password, including the
// empty string — "no password configured" means auth is impossible,
// not that any password works.
func Verify(hash, password string) bool {
	if hash == "" {
		return false
	}

	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2id(hash, password)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	default:
		return false
	}
}

func verifyArgon2id(hash, password string) bool {
	// $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<sum>
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
