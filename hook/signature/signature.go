package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "Posthook-Id"
	HeaderTimestamp = "Posthook-Timestamp"
	HeaderSignature = "Posthook-Signature"

	// SignatureVersion is the only scheme Posthook emits
	SignatureVersion = "v1"

	DefaultTolerance = 300 * time.Second
)

// Signature is one entry of the Posthook-Signature header
type Signature struct {
	Version   string
	Signature string
}

// String returns the signature in the format: v1,<hex_signature>
func (s Signature) String() string {
	return fmt.Sprintf("%s,%s", s.Version, s.Signature)
}

// ParseSignature parses a signature string in the format: v1,<hex_signature>
func ParseSignature(sig string) (Signature, error) {
	parts := strings.SplitN(sig, ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Signature{}, fmt.Errorf("invalid signature format, expected 'version,signature'")
	}

	return Signature{
		Version:   parts[0],
		Signature: parts[1],
	}, nil
}

/* Sign computes the signature Posthook sends for body at timestamp
 * The signed content is: {timestamp}.{body}
 */
func Sign(key string, timestamp int64, body []byte) Signature {
	return Signature{
		Version:   SignatureVersion,
		Signature: hex.EncodeToString(digest(key, timestamp, body)),
	}
}

func digest(key string, timestamp int64, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}

/* Verify reports whether any of the supplied signatures matches body
 * Several signatures are sent while a signing key is being rotated
 * Every candidate is compared in constant time and none is skipped once a match is found
 */
func Verify(key string, timestamp int64, body []byte, signatures []Signature) bool {
	expected := digest(key, timestamp, body)

	matched := 0
	for _, sig := range signatures {
		if sig.Version != SignatureVersion {
			continue
		}
		got, err := hex.DecodeString(sig.Signature)
		if err != nil {
			continue
		}
		matched |= subtle.ConstantTimeCompare(expected, got)
	}
	return matched == 1
}

// ParseSignatureHeader parses the space-delimited header: "v1,sig1 v1,sig2"
func ParseSignatureHeader(header string) ([]Signature, error) {
	if header == "" {
		return nil, fmt.Errorf("signature header is empty")
	}

	parts := strings.Split(header, " ")
	signatures := make([]Signature, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		sig, err := ParseSignature(part)
		if err != nil {
			return nil, fmt.Errorf("parsing signature '%s': %w", part, err)
		}

		signatures = append(signatures, sig)
	}

	if len(signatures) == 0 {
		return nil, fmt.Errorf("no valid signatures found in header")
	}

	return signatures, nil
}

// BuildSignatureHeader joins signatures with spaces
func BuildSignatureHeader(signatures []Signature) string {
	parts := make([]string, len(signatures))
	for i, sig := range signatures {
		parts[i] = sig.String()
	}
	return strings.Join(parts, " ")
}
