package scoring

import (
	"encoding/json"
	"fmt"
)

// Rubric is the scoring configuration stored under the "scoring" setting.
type Rubric struct {
	StrongKeywords   map[string]float64 `json:"strong_keywords"`
	MediumKeywords   map[string]float64 `json:"medium_keywords"`
	StrongCap        float64            `json:"strong_cap"`
	MediumCap        float64            `json:"medium_cap"`
	Seniority        map[string]float64 `json:"seniority"`
	RemoteBonus      float64            `json:"remote_bonus"`
	GlobalBonus      float64            `json:"global_bonus"`
	Threshold        float64            `json:"threshold"`
	NegativeBelow    float64            `json:"reject_if_negative_and_below"`
	NegativeKeywords []string           `json:"negative_keywords"`
	RemoteTokens     []string           `json:"remote_tokens,omitempty"`
	GlobalTokens     []string           `json:"global_tokens,omitempty"`
	MaxTotal         float64            `json:"max_total,omitempty"`
}

// DefaultRubric returns the rubric seeded into a fresh store.
func DefaultRubric() Rubric {
	return Rubric{
		StrongKeywords: map[string]float64{
			"solidity":       12,
			"smart contract": 12,
			"protocol":       12,
			"defi":           12,
			"mev":            12,
			"rollup":         12,
			"zk":             12,
			"rust":           12,
			"evm":            12,
		},
		MediumKeywords: map[string]float64{
			"web3":       6,
			"crypto":     6,
			"blockchain": 6,
			"wallet":     6,
			"node":       6,
		},
		StrongCap: 60,
		MediumCap: 30,
		Seniority: map[string]float64{
			"senior":    20,
			"staff":     20,
			"principal": 20,
			"lead":      20,
			"mid":       10,
			"junior":    0,
			"intern":    0,
		},
		RemoteBonus:      15,
		GlobalBonus:      5,
		Threshold:        70,
		NegativeBelow:    80,
		NegativeKeywords: []string{"sales", "business development", "bd", "account executive"},
		RemoteTokens:     []string{"remote"},
		GlobalTokens:     []string{"global"},
		MaxTotal:         100,
	}
}

// withDefaults fills the optional fields a stored rubric may omit.
func (r Rubric) withDefaults() Rubric {
	if len(r.RemoteTokens) == 0 {
		r.RemoteTokens = []string{"remote"}
	}
	if len(r.GlobalTokens) == 0 {
		r.GlobalTokens = []string{"global"}
	}
	if r.MaxTotal <= 0 {
		r.MaxTotal = 100
	}
	return r
}

// ParseRubric decodes a stored rubric and validates it.
func ParseRubric(data []byte) (Rubric, error) {
	var r Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("parse rubric: %w", err)
	}
	r = r.withDefaults()
	if err := r.Validate(); err != nil {
		return Rubric{}, err
	}
	return r, nil
}

// Validate rejects rubrics that cannot produce meaningful scores.
func (r Rubric) Validate() error {
	if r.StrongCap < 0 || r.MediumCap < 0 {
		return fmt.Errorf("rubric caps must be non-negative, got strong=%v medium=%v", r.StrongCap, r.MediumCap)
	}
	if r.Threshold <= 0 {
		return fmt.Errorf("rubric threshold must be positive, got %v", r.Threshold)
	}
	if r.MaxTotal > 0 && r.Threshold > r.MaxTotal {
		return fmt.Errorf("rubric threshold %v exceeds max total %v", r.Threshold, r.MaxTotal)
	}
	return nil
}
