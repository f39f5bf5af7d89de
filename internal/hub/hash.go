package hub

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// NormalizeHash canonicalizes a message hash field to lowercase 0x-prefixed
// hex. The hub emits hashes as 0x-prefixed hex, bare hex, or base64
// depending on the serving path; all three are accepted. Anything else is
// unrecoverable and reported as absent — callers drop the action rather
// than fabricate an identity.
//
// Normalizing an already-canonical hash returns it unchanged.
func NormalizeHash(v any) (string, bool) {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return "", false
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		body := s[2:]
		if body == "" || !isHex(body) {
			return "", false
		}
		return "0x" + strings.ToLower(body), true
	}

	// Bare hex wins over base64: every bare-hex string of even length is
	// also decodable base64, and decoding it would silently change the
	// identity.
	if isHex(s) {
		return "0x" + strings.ToLower(s), true
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) > 0 {
		return "0x" + hex.EncodeToString(b), true
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) > 0 {
		return "0x" + hex.EncodeToString(b), true
	}

	return "", false
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
