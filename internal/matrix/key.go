package matrix

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	domainTemplate = "raciforge/template/v1"
	domainActivity = "raciforge/activity/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a stable content hash over raw workbook bytes.
// It gives each parsed template an identity usable for change detection;
// deduplication against previously seen templates is the caller's job.
func Fingerprint(data []byte) string {
	return hashWithDomain(domainTemplate, data)
}

// CanonicalLabel normalizes a human-authored label for comparison:
// surrounding whitespace is trimmed and the text is NFC-normalized so
// that visually identical labels compare equal regardless of how the
// spreadsheet editor encoded them.
func CanonicalLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// RoleKey forms the unique per-domain role key. Scoping by domain key
// keeps the same role name in two domains from colliding.
func RoleKey(domainKey, name string) string {
	return domainKey + ":" + CanonicalLabel(name)
}

// ActivityKey computes a content-addressed key for an activity.
// The key is stable across re-parses of the same template: it depends
// only on the owning domain, the activity's order within its sheet, and
// its canonical label.
func ActivityKey(domainKey string, orderIndex int, label string) string {
	payload := fmt.Sprintf("%s\x00%d\x00%s", domainKey, orderIndex, CanonicalLabel(label))
	return hashWithDomain(domainActivity, []byte(payload))
}
