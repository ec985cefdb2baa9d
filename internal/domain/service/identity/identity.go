package identity

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
)

// KeyPrefix marks the current key-derivation scheme version. Any change to a
// per-category body construction below is a breaking change: bump this prefix
// so old and new keys can never collide silently. Historical matchKeys are not
// migrated in place.
const KeyPrefix = "auc:"

var keyPattern = regexp.MustCompile(`^auc:[0-9a-f]{8}$`)

// Gem subtype markers. Gem names are otherwise ignored for identity:
// skill-level sub-options are cosmetic detail, not listing identity.
const (
	gemMarkerAnnihilation = "멸화"
	gemMarkerCrimson      = "홍염"
)

const (
	stoneMarker = "의 돌"
	bookMarker  = "각인서"
)

// Subject is the attribute bundle identity works on. Both stored favorites
// and freshly normalized upstream items reduce to it, so storage-time and
// query-time classification can never drift.
type Subject struct {
	Name    string
	Grade   string
	Tier    *int
	Quality *int
	Options []value.ItemOption
}

func SubjectFromItem(item entity.Item) Subject {
	return Subject{
		Name:    item.Name,
		Grade:   item.Grade,
		Tier:    item.Tier,
		Quality: item.Quality,
		Options: item.Options,
	}
}

func SubjectFromFavorite(f entity.Favorite) Subject {
	return Subject{
		Name:    f.Name,
		Grade:   f.Grade,
		Tier:    f.Tier,
		Quality: f.Quality,
		Options: f.Options,
	}
}

// Engine derives deterministic identity keys and builds option filters.
// The option table is injected once at startup.
type Engine struct {
	table *value.OptionTable
}

func NewEngine(table *value.OptionTable) *Engine {
	return &Engine{table: table}
}

// Classify infers the semantic category from name patterns and attribute
// shape. First match wins; it never fails.
func Classify(s Subject) value.Category {
	name := normalizeText(s.Name)

	switch {
	case strings.Contains(name, gemMarkerAnnihilation), strings.Contains(name, gemMarkerCrimson):
		return value.CategoryGem
	case strings.Contains(name, stoneMarker):
		return value.CategoryStone
	case strings.Contains(name, bookMarker):
		return value.CategoryBook
	case s.Quality != nil && len(s.Options) > 0:
		return value.CategoryAccessory
	default:
		return value.CategoryGeneric
	}
}

// DeriveKey fingerprints a subject into "auc:<8 hex>". Equal normalized
// attributes always produce the same key; the 32-bit digest trades a
// theoretical collision for short, storage-friendly keys.
func (e *Engine) DeriveKey(s Subject, category ...value.Category) string {
	cat := value.Category("")
	if len(category) > 0 {
		cat = category[0]
	}
	if cat == "" {
		cat = Classify(s)
	}

	body := canonicalBody(s, cat)

	return fmt.Sprintf("%s%08x", KeyPrefix, hash32(body))
}

// IsValidKey reports whether s matches the current key format. Malformed
// stored keys are rejected before use.
func IsValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// canonicalBody renders the category-specific identity body. Field order is
// fixed, never data-dependent. For generic-shaped categories absent optional
// fields are omitted entirely (not rendered as empty placeholders), so the
// presence of a tier by itself changes the key.
func canonicalBody(s Subject, cat value.Category) string {
	switch cat {
	case value.CategoryStone:
		return strings.Join([]string{
			"t:" + tierString(s.Tier),
			"n:" + normalizeText(s.Name),
			"g:" + normalizeText(s.Grade),
			"o:" + normalizeOptions(s.Options),
		}, "|")

	case value.CategoryAccessory:
		return strings.Join([]string{
			"t:" + tierString(s.Tier),
			"g:" + normalizeText(s.Grade),
			"q:" + qualityString(s.Quality),
			"o:" + normalizeOptions(s.Options),
		}, "|")

	case value.CategoryGem:
		return strings.Join([]string{
			"s:" + gemSubtype(s.Name),
			"t:" + tierString(s.Tier),
		}, "|")

	default: // book, material, generic
		parts := []string{
			"n:" + normalizeText(s.Name),
			"g:" + normalizeText(s.Grade),
		}
		if s.Tier != nil {
			parts = append(parts, "t:"+strconv.Itoa(*s.Tier))
		}
		if s.Quality != nil {
			parts = append(parts, "q:"+strconv.Itoa(*s.Quality))
		}
		if len(s.Options) > 0 {
			parts = append(parts, "o:"+normalizeOptions(s.Options))
		}
		return strings.Join(parts, "|")
	}
}

func gemSubtype(name string) string {
	normalized := normalizeText(name)

	switch {
	case strings.Contains(normalized, gemMarkerAnnihilation):
		return gemMarkerAnnihilation
	case strings.Contains(normalized, gemMarkerCrimson):
		return gemMarkerCrimson
	default:
		return "unknown"
	}
}

func tierString(tier *int) string {
	if tier == nil {
		return ""
	}
	return strconv.Itoa(*tier)
}

func qualityString(quality *int) string {
	if quality == nil {
		return ""
	}
	return strconv.Itoa(*quality)
}

// normalizeText folds free text into a canonical form: NFKC, trimmed,
// lowercased, internal whitespace collapsed, characters outside
// letters/digits/space/`_-:/|.` stripped. Keeps keys stable across
// width/locale variance of the upstream.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ':
			b.WriteRune(r)
		case strings.ContainsRune("_-:/|.", r):
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeOptions canonicalizes an option list: normalized names paired with
// stringified values, sorted ascending by name then value. Input order of the
// saved options never affects the key.
func normalizeOptions(options []value.ItemOption) string {
	if len(options) == 0 {
		return ""
	}

	pairs := make([][2]string, 0, len(options))
	for _, opt := range options {
		pairs = append(pairs, [2]string{
			normalizeText(opt.Name),
			strconv.FormatFloat(opt.Value, 'f', -1, 64),
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+"="+p[1])
	}

	return strings.Join(parts, "|")
}

// hash32 is the FNV-1a-flavored 32-bit string hash used since the first key
// version: per-byte XOR followed by a shift-add mix. Do not touch without
// bumping KeyPrefix.
func hash32(s string) uint32 {
	h := uint32(0x811c9dc5)

	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h += (h << 1) + (h << 4) + (h << 7) + (h << 8) + (h << 24)
	}

	return h
}
