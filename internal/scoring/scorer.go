// Package scoring rates a posting against a keyword rubric. Matching is
// case-insensitive substring containment, not word matching: a narrow
// negative keyword such as "bd" also hits "webdev". Existing rubrics are tuned
// around that behaviour, so it is kept.
package scoring

import (
	"sort"
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

// Result is the score breakdown for one posting.
type Result struct {
	Total           float64
	KeywordScore    float64
	SeniorityScore  float64
	RemoteBonus     float64
	RegionBonus     float64
	Decision        model.Decision
	MatchedKeywords []string
}

// Text is the searchable part of a posting.
type Text struct {
	Title       string
	Description string
	Location    string
	RemoteType  string
}

// TextOf extracts the searchable text of a normalized posting.
func TextOf(j model.NormalizedJob) Text {
	return Text{Title: j.Title, Description: j.Description, Location: j.Location, RemoteType: j.RemoteType}
}

func (t Text) folded() string {
	return strings.ToLower(strings.Join([]string{t.Title, t.Description, t.Location, t.RemoteType}, " "))
}

// Score rates t against rubric. It is pure: equal inputs give equal results.
func Score(rubric Rubric, t Text) Result {
	r := rubric.withDefaults()
	text := t.folded()

	strong, strongHits := keywordScore(text, r.StrongKeywords, r.StrongCap)
	medium, mediumHits := keywordScore(text, r.MediumKeywords, r.MediumCap)
	kw := strong + medium

	var seniority float64
	for key, weight := range r.Seniority {
		if strings.Contains(text, strings.ToLower(key)) && weight > seniority {
			seniority = weight
		}
	}

	global := containsAny(text, r.GlobalTokens)
	var remoteBonus, regionBonus float64
	if global || containsAny(text, r.RemoteTokens) {
		remoteBonus = r.RemoteBonus
	}
	if global {
		regionBonus = r.GlobalBonus
	}

	total := kw + seniority + remoteBonus + regionBonus
	if total > r.MaxTotal {
		total = r.MaxTotal
	}
	if total < 0 {
		total = 0
	}

	decision := model.DecisionReject
	if total >= r.Threshold {
		decision = model.DecisionAccept
	}
	// Bonuses alone must not promote an off-topic posting such as a senior
	// remote sales role.
	if kw == 0 && total < r.NegativeBelow && containsAny(text, r.NegativeKeywords) {
		decision = model.DecisionReject
	}

	return Result{
		Total:           total,
		KeywordScore:    kw,
		SeniorityScore:  seniority,
		RemoteBonus:     remoteBonus,
		RegionBonus:     regionBonus,
		Decision:        decision,
		MatchedKeywords: append(strongHits, mediumHits...),
	}
}

// keywordScore sums the weights of every keyword found in text, capped.
// Hits are returned sorted so results are deterministic.
func keywordScore(text string, weights map[string]float64, limit float64) (float64, []string) {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum float64
	var hits []string
	for _, k := range keys {
		if strings.Contains(text, strings.ToLower(k)) {
			sum += weights[k]
			hits = append(hits, k)
		}
	}
	if sum > limit {
		sum = limit
	}
	return sum, hits
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

var seniorTitleTokens = []string{"senior", "sr.", "sr ", "staff", "principal", "lead", "head of", "director", "architect"}

// HasSeniorSignal reports whether a title names a senior-level role.
func HasSeniorSignal(title string) bool {
	return containsAny(strings.ToLower(title)+" ", seniorTitleTokens)
}
