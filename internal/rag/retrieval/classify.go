package retrieval

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

var comparativeCues = regexp.MustCompile(`(?i)\b(who|whom|whose|which (candidate|person|one)s?|compare[sd]?|comparison|everyone|everybody|anyone|anybody|best|most|least|candidates|people|resumes|profiles|group|among|between|across|each|all|both|rank|ranking|versus|vs)\b`)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	possessive = regexp.MustCompile(`['’]s\b`)
)

// name tokens too generic to identify a document on their own
var genericNameTokens = map[string]struct{}{
	"resume": {}, "cv": {}, "document": {}, "profile": {}, "final": {}, "updated": {}, "new": {},
	"copy": {}, "draft": {}, "candidate": {}, "personal": {}, "the": {}, "and": {}, "von": {}, "van": {}, "der": {},
}

// given names and surnames that are also everyday English words
var commonWordNames = toSet(
	"will", "grace", "mark", "joy", "hope", "faith", "bill", "rich", "rob", "sue", "pat", "art",
	"may", "june", "april", "rose", "lily", "dawn", "ray", "jack", "frank", "chase", "drew",
	"max", "grant", "hunter", "page", "miles", "king", "young", "brown", "white", "black",
	"green", "gray", "grey", "long", "little", "wood", "stone", "hill", "love", "sky", "summer",
	"autumn", "holly", "ivy", "ruby", "amber", "hazel", "iris", "pearl", "violet", "sandy",
	"sunny", "penny", "rod", "cash", "gene", "dean", "guy", "major", "bishop", "baker", "cook",
	"fisher", "smith", "best", "price", "lane", "field", "ford", "hall", "moore", "rice", "west",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ClassifyQuestion decides which documents a question is about. A single
// matching name wins even when the question also uses comparative wording.
func (m *Manager) ClassifyQuestion(question string) commonModels.ScopeDecision {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comparative := comparativeCues.MatchString(question)
	switch len(m.order) {
	case 0:
		d := commonModels.Ambiguous()
		d.Comparative = comparative
		d.Reason = "corpus is empty"
		return d
	case 1:
		d := commonModels.SingleDocument(m.order[0])
		d.Comparative = comparative
		d.Reason = "only one document"
		return d
	}

	matched := m.matchNamesLocked(question)
	if len(matched) == 1 {
		d := commonModels.SingleDocument(matched[0])
		d.Comparative = comparative
		d.Reason = "question names one document"
		return d
	}

	d := commonModels.CrossDocument()
	d.Comparative = comparative
	switch {
	case len(matched) > 1:
		d.Reason = "question names several documents"
	case comparative:
		d.Reason = "comparative wording"
	default:
		d.Reason = "no single-document signal"
	}
	return d
}

// matchNamesLocked returns the ids of documents named in the question, in
// insertion order. A document matches on a generated id, its full display
// name, or a mention of a name token no other document shares.
func (m *Manager) matchNamesLocked(question string) []string {
	q := " " + normalizeForMatch(question) + " "
	mentioned := nameMentions(question)

	tokenOwners := map[string]map[string]struct{}{}
	for _, id := range m.order {
		for _, tok := range nameTokens(m.documents[id].DisplayName) {
			if tokenOwners[tok] == nil {
				tokenOwners[tok] = map[string]struct{}{}
			}
			tokenOwners[tok][id] = struct{}{}
		}
	}

	var matched []string
	for _, id := range m.order {
		d := m.documents[id]
		full := normalizeForMatch(d.DisplayName)
		hit := (isGeneratedId(id) && strings.Contains(q, " "+strings.ToLower(id)+" ")) ||
			(len(nameTokens(d.DisplayName)) > 1 && strings.Contains(q, " "+full+" "))
		if !hit {
			for _, tok := range nameTokens(d.DisplayName) {
				if _, ok := mentioned[tok]; ok && len(tokenOwners[tok]) == 1 {
					hit = true
					break
				}
			}
		}
		if hit {
			matched = append(matched, id)
		}
	}
	return matched
}

// nameMentions returns the lowercased words of the question that may refer
// to a person. A word that is also an everyday word ("will", "grace") only
// counts when written as a name: capitalised away from the start of a
// sentence, or possessive.
func nameMentions(question string) map[string]struct{} {
	out := map[string]struct{}{}
	sentenceStart := true
	for _, raw := range strings.Fields(question) {
		owned := possessive.MatchString(raw)
		for _, word := range strings.Fields(nonWord.ReplaceAllString(possessive.ReplaceAllString(raw, ""), " ")) {
			tok := strings.ToLower(word)
			first, _ := utf8.DecodeRuneInString(word)
			_, common := commonWordNames[tok]
			if !common || owned || (unicode.IsUpper(first) && !sentenceStart) {
				out[tok] = struct{}{}
			}
			sentenceStart = false
		}
		if strings.ContainsAny(raw[len(raw)-1:], ".!?:") {
			sentenceStart = true
		}
	}
	return out
}

// isGeneratedId reports whether id looks like an issued slug id rather than
// a bare word, so it can be matched in any casing.
func isGeneratedId(id string) bool {
	return strings.ContainsAny(id, "-0123456789")
}

func normalizeForMatch(s string) string {
	s = possessive.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(nonWord.ReplaceAllString(s, " ")), " ")
}

func nameTokens(displayName string) []string {
	var out []string
	for _, tok := range strings.Fields(normalizeForMatch(displayName)) {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, generic := genericNameTokens[tok]; generic {
			continue
		}
		if strings.Trim(tok, "0123456789") == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}
