package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobdigest/internal/model"
)

func TestScore_Boundaries(t *testing.T) {
	rubric := DefaultRubric()

	low := Score(rubric, Text{Title: "Blockchain Engineer"})
	assert.Less(t, low.Total, 70.0)
	assert.Equal(t, model.DecisionReject, low.Decision)

	accept := Score(rubric, Text{
		Title:       "Senior Solidity Smart Contract DeFi Engineer",
		Description: "remote global",
		Location:    "global",
		RemoteType:  "remote",
	})
	assert.GreaterOrEqual(t, accept.Total, 70.0)
	assert.Equal(t, model.DecisionAccept, accept.Decision)

	higher := Score(rubric, Text{
		Title:       "Principal Rust Protocol Engineer",
		Description: "DeFi rollup remote global",
		Location:    "global",
		RemoteType:  "remote",
	})
	assert.Greater(t, higher.Total, accept.Total)
	assert.Equal(t, model.DecisionAccept, higher.Decision)
}

func TestScore_Breakdown(t *testing.T) {
	got := Score(DefaultRubric(), Text{
		Title:       "Senior Solidity Smart Contract DeFi Engineer",
		Description: "remote global",
		Location:    "global",
		RemoteType:  "remote",
	})

	assert.Equal(t, 36.0, got.KeywordScore)
	assert.Equal(t, 20.0, got.SeniorityScore)
	assert.Equal(t, 15.0, got.RemoteBonus)
	assert.Equal(t, 5.0, got.RegionBonus)
	assert.Equal(t, 76.0, got.Total)
	assert.Equal(t, []string{"defi", "smart contract", "solidity"}, got.MatchedKeywords)
}

func TestScore_Pure(t *testing.T) {
	rubric := DefaultRubric()
	in := Text{Title: "Staff ZK Engineer", Description: "rollup wallet node crypto", Location: "remote"}
	first := Score(rubric, in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Score(rubric, in))
	}
}

func TestScore_CapsApplyPerTier(t *testing.T) {
	rubric := DefaultRubric()
	// Every strong keyword (9×12 = 108) and every medium keyword (5×6 = 30).
	got := Score(rubric, Text{
		Title:       "solidity smart contract protocol defi mev rollup zk rust evm",
		Description: "web3 crypto blockchain wallet node",
	})
	assert.Equal(t, 90.0, got.KeywordScore)
}

func TestScore_SeniorityTakesMaxNotSum(t *testing.T) {
	got := Score(DefaultRubric(), Text{Title: "Senior Lead Mid Engineer"})
	assert.Equal(t, 20.0, got.SeniorityScore)
}

func TestScore_GlobalImpliesRemoteBonus(t *testing.T) {
	got := Score(DefaultRubric(), Text{Title: "Engineer", Location: "Global"})
	assert.Equal(t, 15.0, got.RemoteBonus)
	assert.Equal(t, 5.0, got.RegionBonus)

	remoteOnly := Score(DefaultRubric(), Text{Title: "Engineer", RemoteType: "remote"})
	assert.Equal(t, 15.0, remoteOnly.RemoteBonus)
	assert.Equal(t, 0.0, remoteOnly.RegionBonus)
}

func TestScore_TotalClamped(t *testing.T) {
	rubric := DefaultRubric()
	rubric.StrongCap = 200
	got := Score(rubric, Text{
		Title:       "Principal solidity smart contract protocol defi mev rollup zk rust evm",
		Description: "remote global",
	})
	assert.Equal(t, 100.0, got.Total)
}

func TestScore_NegativeKeywordOverride(t *testing.T) {
	rubric := DefaultRubric()
	rubric.Threshold = 30

	sales := Score(rubric, Text{Title: "Senior Sales Manager", Description: "remote global"})
	assert.Equal(t, 0.0, sales.KeywordScore)
	assert.Equal(t, 40.0, sales.Total)
	assert.Equal(t, model.DecisionReject, sales.Decision, "bonuses alone must not accept a sales role")

	engineer := Score(rubric, Text{Title: "Senior Manager", Description: "remote global"})
	assert.Equal(t, model.DecisionAccept, engineer.Decision)

	// With a keyword hit the override no longer applies.
	bdWithKeyword := Score(rubric, Text{Title: "Senior BD for DeFi", Description: "remote global"})
	assert.Equal(t, model.DecisionAccept, bdWithKeyword.Decision)
}

func TestScore_SubstringMatchingIsKept(t *testing.T) {
	rubric := DefaultRubric()
	rubric.Threshold = 30

	// "bd" is a deliberately narrow negative keyword and still matches "webdev".
	got := Score(rubric, Text{Title: "Senior Webdev Advisor", Description: "remote global"})
	assert.Equal(t, model.DecisionReject, got.Decision)
}

func TestParseRubric(t *testing.T) {
	data, err := json.Marshal(DefaultRubric())
	require.NoError(t, err)

	r, err := ParseRubric(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultRubric(), r)

	_, err = ParseRubric([]byte(`{"threshold": "high"}`))
	assert.Error(t, err)

	_, err = ParseRubric([]byte(`{"threshold": 0}`))
	assert.Error(t, err)
}

func TestParseRubric_FillsOptionalFields(t *testing.T) {
	r, err := ParseRubric([]byte(`{"strong_keywords":{"go":10},"strong_cap":50,"threshold":10}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, r.RemoteTokens)
	assert.Equal(t, []string{"global"}, r.GlobalTokens)
	assert.Equal(t, 100.0, r.MaxTotal)
}

func TestHasSeniorSignal(t *testing.T) {
	assert.True(t, HasSeniorSignal("Senior Backend Engineer"))
	assert.True(t, HasSeniorSignal("Sr. Engineer"))
	assert.True(t, HasSeniorSignal("Head of Engineering"))
	assert.True(t, HasSeniorSignal("Engineering Lead"))
	assert.False(t, HasSeniorSignal("Backend Engineer"))
	assert.False(t, HasSeniorSignal("Junior Developer"))
}
