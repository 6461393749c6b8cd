// Package canon produces canonical JSON and domain-separated digests.
//
// Canonical JSON follows RFC 8785 (JCS): sorted keys, minimal escaping and a
// fixed number format. Strings are NFC normalised before serialisation so
// visually identical labels always hash the same.
package canon

import (
	"encoding/hex"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
	"github.com/ucarion/jcs"
	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// Digest domains. The version suffix allows the encoding to change later.
const (
	DomainTrace    = "asyncfifo/trace/v1"
	DomainScenario = "asyncfifo/scenario/v1"
)

// Marshal returns the canonical JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	raw, err := sonnet.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}

	var generic any
	if err := sonnet.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canon: normalise: %w", err)
	}

	out, err := jcs.Format(normalize(generic))
	if err != nil {
		return nil, fmt.Errorf("canon: format: %w", err)
	}
	return []byte(out), nil
}

// normalize applies NFC to every string, including object keys.
func normalize(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case []any:
		for i, elem := range val {
			val[i] = normalize(elem)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[norm.NFC.String(k)] = normalize(elem)
		}
		return out
	default:
		return v
	}
}

// Digest hashes data with SHA3-256 under the given domain.
// Format: SHA3-256(domain || 0x00 || data), hex encoded.
func Digest(domain string, data []byte) string {
	h := sha3.New256()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DigestValue canonicalises v and digests it under domain.
func DigestValue(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return Digest(domain, data), nil
}
