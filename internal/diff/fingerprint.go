package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/raysh454/tenji/internal/model"
)

// PolicyVersion identifies the fingerprint scheme in effect. It is stamped
// into persisted baselines and reports; diffing across different policy
// versions is refused because the same defect would carry different
// identities under each scheme.
//
// History: v1 keyed on rule + selector + markup length, without page
// scoping. v2 adds the page path and replaces the length token with a
// content hash of normalized markup.
const PolicyVersion = "fp-v2"

// ErrInvalidOccurrence marks an occurrence that is missing a required
// identity field (rule id or page path). Callers skip the occurrence and
// continue; one bad node never aborts a scan comparison.
var ErrInvalidOccurrence = errors.New("occurrence missing required identity fields")

// selectorSep joins selector path fragments inside a fingerprint. Axe
// targets never contain this sequence.
const selectorSep = " > "

// Fingerprint derives the identity key for one violation occurrence. The key
// is a deterministic concatenation of rule id, page path, the joined selector
// path, and a content-derived markup token.
//
// The markup token is the first 16 hex characters (64 bits) of SHA-256 over
// the normalized markup (see normalizeMarkup). Accepted collision risk: two
// different elements collide only when their normalized serializations hash
// to the same 64-bit prefix, which in practice requires near-identical
// markup at the same rule/page/selector tuple; such a collision is treated
// as "same defect" (a false-negative risk), never as an error. This is
// deliberately stronger than a length-based token, which collides between
// any two different elements of equal length.
func Fingerprint(ruleID, pagePath string, node model.Node) (string, error) {
	if strings.TrimSpace(ruleID) == "" || strings.TrimSpace(pagePath) == "" {
		return "", ErrInvalidOccurrence
	}

	sum := sha256.Sum256([]byte(normalizeMarkup(node.HTML)))
	token := hex.EncodeToString(sum[:])[:16]

	var b strings.Builder
	b.WriteString(ruleID)
	b.WriteByte('|')
	b.WriteString(pagePath)
	b.WriteByte('|')
	b.WriteString(strings.Join(node.Target, selectorSep))
	b.WriteByte('|')
	b.WriteString(token)
	return b.String(), nil
}
