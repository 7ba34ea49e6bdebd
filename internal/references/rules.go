package references

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"assetlib/internal/config"
)

// Rules holds the token and extension tables used for classification.
type Rules struct {
	FrameTokens        []string
	TileTokens         []string
	OwnerTokens        []string
	TextureExtensions  []string
	GeometryExtensions []string
}

// RulesFromConfig copies the reference tables out of cfg.
func RulesFromConfig(cfg *config.Config) Rules {
	r := Rules{
		FrameTokens:        append([]string(nil), cfg.References.FrameTokens...),
		TileTokens:         append([]string(nil), cfg.References.TileTokens...),
		OwnerTokens:        append([]string(nil), cfg.References.OwnerTokens...),
		TextureExtensions:  append([]string(nil), cfg.References.TextureExtensions...),
		GeometryExtensions: append([]string(nil), cfg.References.GeometryExtensions...),
	}
	r.sort()
	return r
}

// DefaultRules returns the rules of the default configuration.
func DefaultRules() Rules {
	cfg := config.Default()
	return RulesFromConfig(&cfg)
}

// sort orders every table longest first so "$F4" wins over "$F" and
// ".bgeo.sc" over ".bgeo".
func (r *Rules) sort() {
	for _, list := range [][]string{r.FrameTokens, r.TileTokens, r.OwnerTokens, r.TextureExtensions, r.GeometryExtensions} {
		sort.SliceStable(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
	}
}

// FrameToken returns the frame placeholder contained in s, if any.
func (r Rules) FrameToken(s string) (string, bool) {
	return findToken(s, r.FrameTokens)
}

// TileToken returns the tile placeholder contained in s, if any.
func (r Rules) TileToken(s string) (string, bool) {
	return findToken(s, r.TileTokens)
}

// SubstituteOwner replaces every owner token in s with owner.
func (r Rules) SubstituteOwner(s, owner string) string {
	for _, token := range r.OwnerTokens {
		s = strings.ReplaceAll(s, token, owner)
	}
	return s
}

// Extension returns the recognised (possibly compound) extension of name
// and whether it is a texture or geometry extension.
func (r Rules) Extension(name string) (string, Kind) {
	lower := strings.ToLower(name)
	best, kind := "", KindUnknown
	for _, ext := range r.TextureExtensions {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best, kind = ext, KindTexture
		}
	}
	for _, ext := range r.GeometryExtensions {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best, kind = ext, KindGeometry
		}
	}
	return best, kind
}

// findToken reports the first token that occurs in s as a whole word. An
// alphanumeric token edge must not run into another letter or digit, so
// "$F" is not found in "$FX_ROOT" while "$F4" is found in "tex.$F4.exr".
func findToken(s string, tokens []string) (string, bool) {
	for _, token := range tokens {
		for from := 0; from < len(s); {
			i := strings.Index(s[from:], token)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(token)
			if bounded(s, token, start, end) {
				return token, true
			}
			from = start + 1
		}
	}
	return "", false
}

func bounded(s, token string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(token)
	if wordRune(first) && start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s[:start]); wordRune(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(token)
	if wordRune(last) && end < len(s) {
		if next, _ := utf8.DecodeRuneInString(s[end:]); wordRune(next) {
			return false
		}
	}
	return true
}

func wordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
