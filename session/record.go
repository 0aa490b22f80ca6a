package session

import (
	"errors"
	"strings"
)

// ErrMalformedRecord is returned when a stored entry cannot be split into a
// fingerprint and a token. The engine treats one malformed entry as
// corruption of the whole list.
var ErrMalformedRecord = errors.New("malformed session record")

// separator joins fingerprint and token in the stored representation. The
// JWT alphabet (base64url plus '.') never contains ':', so splitting on the
// first occurrence is unambiguous.
const separator = "::"

// Record is one outstanding refresh privilege: the device fingerprint a
// refresh token was bound to, and the token itself. The fingerprint must
// not contain the separator or the stored form decodes truncated; Append
// and [ValidFingerprint] enforce this.
type Record struct {
	Fingerprint string
	Token       string
}

// ValidFingerprint reports whether fp can be stored without colliding
// with the record encoding.
func ValidFingerprint(fp string) bool {
	return !strings.Contains(fp, separator)
}

// Encode renders the record in its stored form, "<fingerprint>::<token>".
func (r Record) Encode() string {
	return r.Fingerprint + separator + r.Token
}

// DecodeRecord parses a stored entry. The fingerprint may be empty (clients
// are not forced to send one); a missing separator or empty token marks the
// entry as malformed.
func DecodeRecord(s string) (Record, error) {
	fp, token, ok := strings.Cut(s, separator)
	if !ok || token == "" {
		return Record{}, ErrMalformedRecord
	}
	return Record{Fingerprint: fp, Token: token}, nil
}
