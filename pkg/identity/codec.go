// Package identity encodes and decodes the stable, information-bearing
// identifiers the provider mints for resource instances.
//
// An identifier has the form
//
//	<kind>-<identity tokens...>-<fingerprint>
//
// where kind is the short kind token ("bread", "sandwich"), the identity
// tokens are a normalized rendering of the attributes that affect pricing
// or identity ("sandwich-bread-rye-meat-turkey-..."), and the fingerprint
// is the first eight hex characters of a SHA-256 over the canonical
// identity payload plus a caller-supplied sequence salt. The salt keeps
// two instances with identical configuration distinguishable.
//
// Encoding is pure: the same (kind, tokens, payload, salt) always yields
// the same identifier, and the identifier changes if and only if an
// identity-affecting input changes. Decode recovers the kind, tokens, and
// fingerprint for diagnostics and import tooling; non-identity attributes
// are not recoverable.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// ID is an encoded resource instance identifier.
type ID string

// FingerprintLen is the hex length of the trailing fingerprint segment.
const FingerprintLen = 8

var (
	tokenPattern       = regexp.MustCompile(`^[a-z0-9_]+$`)
	fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// Fingerprint hashes the canonical identity payload together with the
// sequence salt and returns the leading FingerprintLen hex characters.
func Fingerprint(payload, salt string) string {
	sum := sha256.Sum256([]byte(payload + "\x00" + salt))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// Encode builds an identifier from a short kind token, identity tokens,
// and a fingerprint. Tokens must be lowercase alphanumeric with
// underscores; anything else is rejected so identifiers stay parseable.
func Encode(kind string, tokens []string, fingerprint string) (ID, error) {
	if !tokenPattern.MatchString(kind) {
		return "", fmt.Errorf("invalid kind token %q", kind)
	}
	if !fingerprintPattern.MatchString(fingerprint) {
		return "", fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	parts := make([]string, 0, len(tokens)+2)
	parts = append(parts, kind)
	for _, tok := range tokens {
		if !tokenPattern.MatchString(tok) {
			return "", fmt.Errorf("invalid identity token %q", tok)
		}
		parts = append(parts, tok)
	}
	parts = append(parts, fingerprint)
	return ID(strings.Join(parts, "-")), nil
}

// Decoded is the diagnostic form of an identifier.
type Decoded struct {
	// Kind is the short kind token.
	Kind string

	// Tokens are the identity tokens between kind and fingerprint.
	Tokens []string

	// Fingerprint is the trailing disambiguation segment.
	Fingerprint string
}

// Decode splits an identifier back into kind, identity tokens, and
// fingerprint. It validates shape only; callers check the kind against
// their own catalog.
func Decode(id ID) (Decoded, error) {
	parts := strings.Split(string(id), "-")
	if len(parts) < 2 {
		return Decoded{}, fmt.Errorf("identifier %q has too few segments", id)
	}
	fp := parts[len(parts)-1]
	if !fingerprintPattern.MatchString(fp) {
		return Decoded{}, fmt.Errorf("identifier %q has malformed fingerprint %q", id, fp)
	}
	kind := parts[0]
	if !tokenPattern.MatchString(kind) {
		return Decoded{}, fmt.Errorf("identifier %q has malformed kind token %q", id, kind)
	}
	tokens := parts[1 : len(parts)-1]
	for _, tok := range tokens {
		if !tokenPattern.MatchString(tok) {
			return Decoded{}, fmt.Errorf("identifier %q has malformed token %q", id, tok)
		}
	}
	return Decoded{Kind: kind, Tokens: tokens, Fingerprint: fp}, nil
}
