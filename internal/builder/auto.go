package builder

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// autoPrefix marks a UserSpec field as deriving its value from worldSeed
// rather than carrying a literal (spec §4.4 "AUTO policies").
const autoPrefix = "AUTO:"

func isAuto(s string) bool {
	return strings.HasPrefix(s, autoPrefix)
}

// seedBytes is the deterministic input-keying-material every AUTO
// derivation starts from: worldSeed's eight big-endian bytes. Nothing
// in this package ever touches crypto/rand or the wall clock (spec
// §4.4: "MUST NOT consult wall-clock, RNG, or environment").
func seedBytes(worldSeed int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(worldSeed))
	return b
}

// resolveUserID resolves a UserSpec.UserID field. "AUTO:user" uses the
// userKey itself as the display id; any other "AUTO:<policy>" derives a
// deterministic token from (nodeId, userKey, policy, worldSeed) via
// PBKDF2-SHA256, grounded on the same (nodeId, userKey, worldSeed)
// keying tuple the spec requires, reinforced by zmb3-teleport's own use
// of PBKDF2 for deterministic key derivation (SPEC_FULL.md DOMAIN
// STACK). A literal (non-AUTO) value passes through unchanged.
func resolveUserID(raw, nodeID, userKey string, worldSeed int64) string {
	if !isAuto(raw) {
		return raw
	}
	policy := strings.TrimPrefix(raw, autoPrefix)
	if policy == "user" {
		return userKey
	}

	salt := []byte(nodeID + "\x00" + userKey + "\x00" + policy)
	derived := pbkdf2.Key(seedBytes(worldSeed), salt, 4096, 8, sha256.New)
	return fmt.Sprintf("%s_%x", policy, derived)
}

// dictionaryPool is a small, fixed, checked-in word list (not a random
// source) for AUTO:dictionary passwords. Order is part of the contract:
// changing it changes every AUTO:dictionary password ever generated.
var dictionaryPool = []string{
	"moonlight", "ironclad", "velvet", "cascade", "ember",
	"granite", "whisper", "lantern", "obsidian", "harbor",
	"thicket", "solstice", "paragon", "quartz", "ripple",
	"sable", "tundra", "vellum", "wicker", "zephyr",
}

// numspecial is the fixed printable-symbol alphabet folded into
// "numspecial"-flavored password policies (SPEC_FULL.md §9 Open
// Question resolution: a fixed 20-symbol set, same length as
// dictionaryPool so the two pools can share an index derivation).
const numspecial = "!@#$%^&*()-_=+[]{}<>"

// resolvePassword resolves a UserSpec.Password field (spec §4.4
// "Password policies"). AUTO:dictionary picks a pool index from
// SHA-256(seed || "dictionary"); AUTO:c<N>_base64 derives an N-character
// base64 token via HKDF-SHA256; AUTO:c<N>_numspecial derives an
// N-character token from the numspecial alphabet the same way; any
// other AUTO policy falls back to a 12-character base64 token. A
// literal value passes through unchanged.
func resolvePassword(raw, nodeID, userKey string, worldSeed int64) string {
	if !isAuto(raw) {
		return raw
	}
	policy := strings.TrimPrefix(raw, autoPrefix)

	if policy == "dictionary" {
		sum := sha256.Sum256(append(seedBytes(worldSeed), []byte("dictionary")...))
		idx := int(binary.BigEndian.Uint32(sum[:4])) % len(dictionaryPool)
		if idx < 0 {
			idx += len(dictionaryPool)
		}
		return dictionaryPool[idx]
	}

	n, alphabet := 12, "base64"
	if rest, ok := strings.CutPrefix(policy, "c"); ok {
		if digits, suffix, found := strings.Cut(rest, "_"); found {
			if parsed, err := strconv.Atoi(digits); err == nil && parsed > 0 {
				n = parsed
			}
			if suffix == "numspecial" {
				alphabet = "numspecial"
			}
		}
	}
	if alphabet == "numspecial" {
		return numspecialToken(nodeID, userKey, policy, worldSeed, n)
	}
	return base64Token(nodeID, userKey, policy, worldSeed, n)
}

// base64Token derives n base64 characters from an HKDF-SHA256 stream
// keyed by worldSeed, with (nodeId, userKey, policy) as HKDF info —
// every distinct field on every distinct server gets an independent
// stream even under an identical worldSeed.
func base64Token(nodeID, userKey, policy string, worldSeed int64, n int) string {
	info := []byte(nodeID + "\x00" + userKey + "\x00" + policy)
	kdf := hkdf.New(sha256.New, seedBytes(worldSeed), nil, info)

	// base64 emits 4 chars per 3 bytes; over-read then trim to n runes.
	need := (n*3)/4 + 3
	buf := make([]byte, need)
	if _, err := io.ReadFull(kdf, buf); err != nil {
		panic(fmt.Sprintf("builder: hkdf read failed: %v", err)) // unreachable: hkdf never errors on a bounded read
	}
	tok := base64.RawURLEncoding.EncodeToString(buf)
	if len(tok) > n {
		tok = tok[:n]
	}
	return tok
}

// numspecialToken derives n characters from the numspecial alphabet via
// the same HKDF-SHA256 stream base64Token uses, mapping each derived
// byte into the alphabet by modulo indexing instead of base64-encoding.
func numspecialToken(nodeID, userKey, policy string, worldSeed int64, n int) string {
	info := []byte(nodeID + "\x00" + userKey + "\x00" + policy)
	kdf := hkdf.New(sha256.New, seedBytes(worldSeed), nil, info)

	buf := make([]byte, n)
	if _, err := io.ReadFull(kdf, buf); err != nil {
		panic(fmt.Sprintf("builder: hkdf read failed: %v", err)) // unreachable: hkdf never errors on a bounded read
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = numspecial[int(b)%len(numspecial)]
	}
	return string(out)
}

// InspectResult is the metadata an InspectProbe exposes about how a
// UserSpec.Password field would resolve, without exposing the resolved
// password itself. For AUTO:dictionary, Length is deliberately left at
// its zero value: the dictionary pool holds variable-length words, and
// exposing a true length would let a caller narrow down which pool word
// was chosen without ever seeing it (spec.md §9: "the InspectProbe
// dictionary case must not leak length").
type InspectResult struct {
	Auto   bool
	Policy string
	Length int
}

// InspectPassword runs an InspectProbe over a UserSpec.Password field
// (spec.md §9), reporting whether it's AUTO-derived and its policy name
// without ever resolving (or, for AUTO:dictionary, measuring) the actual
// password.
func InspectPassword(raw, nodeID, userKey string, worldSeed int64) InspectResult {
	if !isAuto(raw) {
		return InspectResult{Auto: false}
	}
	policy := strings.TrimPrefix(raw, autoPrefix)
	if policy == "dictionary" {
		return InspectResult{Auto: true, Policy: policy}
	}
	resolved := resolvePassword(raw, nodeID, userKey, worldSeed)
	return InspectResult{Auto: true, Policy: policy, Length: len(resolved)}
}
