package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bakerhealth/baker-api/models"
)

func number(v float64) models.AnswerValue {
	return models.AnswerValue{Number: &v}
}

func choice(v string) models.AnswerValue {
	return models.AnswerValue{Choice: &v}
}

func yesNo(v bool) models.AnswerValue {
	return models.AnswerValue{Bool: &v}
}

// meanDefinition is a minimal framework: one subscale over items A and B,
// mean rule, bands Low [0,2.5) and High [2.5,5].
func meanDefinition() *models.FrameworkDefinition {
	return &models.FrameworkDefinition{
		Code:         "TST",
		Version:      1,
		Name:         "Test Framework",
		AssessmentID: "tst-core",
		Items: []models.Item{
			{ID: "A", Required: true, Domain: models.ResponseDomain{Kind: models.DomainLikert, Min: 0, Max: 5}},
			{ID: "B", Required: true, Domain: models.ResponseDomain{Kind: models.DomainLikert, Min: 0, Max: 5}},
		},
		Subscales: []models.Subscale{
			{
				Name:      "core",
				ItemIDs:   []string{"A", "B"},
				Rule:      models.RuleMean,
				Precision: 2,
				Bands: []models.ScoreBand{
					{Min: 0, Max: 2.5, Label: "Low"},
					{Min: 2.5, Max: 5, Label: "High"},
				},
			},
		},
		TotalRule: models.RuleSum,
		TotalBands: []models.ScoreBand{
			{Min: 0, Max: 2.5, Label: "Low"},
			{Min: 2.5, Max: 5, Label: "High"},
		},
	}
}

func TestScoreMeanSubscaleWithBandLookup(t *testing.T) {
	result, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(3)},
		{ItemID: "B", Value: number(4)},
	})

	assert.Nil(t, err)
	assert.Equal(t, 3.5, result.SubscaleScores["core"].Value)
	assert.Equal(t, "High", result.SubscaleScores["core"].Band)
	assert.Equal(t, 3.5, result.Total.Value)
	assert.Equal(t, "High", result.Total.Band)
	assert.Equal(t, []string{}, result.Flags)
	assert.Equal(t, "TST", result.FrameworkCode)
	assert.Equal(t, 1, result.Version)
}

func TestScoreIsDeterministic(t *testing.T) {
	def := efaV1()
	answers := []models.Answer{
		{ItemID: "E1", Value: number(4)},
		{ItemID: "E2", Value: number(3)},
		{ItemID: "E3", Value: number(2)},
		{ItemID: "E4", Value: number(5)},
		{ItemID: "E5", Value: choice("often")},
		{ItemID: "E6", Value: yesNo(true)},
	}

	first, err := Score(def, answers)
	assert.Nil(t, err)
	for i := 0; i < 50; i++ {
		again, err := Score(def, answers)
		assert.Nil(t, err)
		assert.Equal(t, first.SubscaleScores, again.SubscaleScores)
		assert.Equal(t, first.Total, again.Total)
		assert.Equal(t, first.Flags, again.Flags)
	}
}

func TestScoreFailsWhenRequiredAnswerMissing(t *testing.T) {
	result, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(3)},
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrIncompleteAnswers)

	var incomplete *IncompleteError
	assert.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"B"}, incomplete.Missing)
}

func TestScoreFailsOnUnknownItem(t *testing.T) {
	_, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(3)},
		{ItemID: "B", Value: number(4)},
		{ItemID: "Z", Value: number(1)},
	})

	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestScoreFailsOnValueOutsideDomain(t *testing.T) {
	_, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(9)},
		{ItemID: "B", Value: number(4)},
	})

	assert.ErrorIs(t, err, ErrInvalidAnswer)

	var item *ItemError
	assert.ErrorAs(t, err, &item)
	assert.Equal(t, "A", item.ItemID)
}

func TestScoreFailsOnFractionalLikertRating(t *testing.T) {
	_, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(2.5)},
		{ItemID: "B", Value: number(4)},
	})

	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestScoreFailsOnDuplicateAnswer(t *testing.T) {
	_, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(3)},
		{ItemID: "A", Value: number(4)},
		{ItemID: "B", Value: number(4)},
	})

	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestScoreFailsOnWrongAnswerShape(t *testing.T) {
	_, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: choice("three")},
		{ItemID: "B", Value: number(4)},
	})

	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestScoreWeightedSumAndChoiceAndYesNo(t *testing.T) {
	result, err := Score(efaV1(), []models.Answer{
		{ItemID: "E1", Value: number(5)},
		{ItemID: "E2", Value: number(4)},
		{ItemID: "E3", Value: number(2)},
		{ItemID: "E4", Value: number(3)},
		{ItemID: "E5", Value: choice("sometimes")},
		{ItemID: "E6", Value: yesNo(false)},
	})

	assert.Nil(t, err)
	// regulation = 1*5 + 2*4
	assert.Equal(t, 13.0, result.SubscaleScores["regulation"].Value)
	assert.Equal(t, "Elevated", result.SubscaleScores["regulation"].Band)
	// attention = mean(2, 3)
	assert.Equal(t, 2.5, result.SubscaleScores["attention"].Value)
	assert.Equal(t, "Typical", result.SubscaleScores["attention"].Band)
	// behaviour = 1 + 0
	assert.Equal(t, 1.0, result.SubscaleScores["behaviour"].Value)
	assert.Equal(t, "Typical", result.SubscaleScores["behaviour"].Band)
	// total = 13 + 2.5 + 1
	assert.Equal(t, 16.5, result.Total.Value)
	assert.Equal(t, "Elevated concern", result.Total.Band)
}

func TestScoreFiresMultipleFlagsIndependently(t *testing.T) {
	result, err := Score(efaV1(), []models.Answer{
		{ItemID: "E1", Value: number(5)},
		{ItemID: "E2", Value: number(5)},
		{ItemID: "E3", Value: number(5)},
		{ItemID: "E4", Value: number(5)},
		{ItemID: "E5", Value: choice("often")},
		{ItemID: "E6", Value: yesNo(true)},
	})

	assert.Nil(t, err)
	assert.Equal(t, []string{"EFA-BEHAVIOUR", "EFA-GLOBAL", "EFA-REGULATION"}, result.Flags)
}

func TestScoreMeanUsesRoundHalfUp(t *testing.T) {
	def := meanDefinition()
	def.Subscales[0].Precision = 0
	def.TotalBands = []models.ScoreBand{
		{Min: 0, Max: 2.5, Label: "Low"},
		{Min: 2.5, Max: 5, Label: "High"},
	}

	// mean(2, 3) = 2.5, which rounds half-up to 3 at precision 0
	result, err := Score(def, []models.Answer{
		{ItemID: "A", Value: number(2)},
		{ItemID: "B", Value: number(3)},
	})

	assert.Nil(t, err)
	assert.Equal(t, 3.0, result.SubscaleScores["core"].Value)
}

func TestScoreReportsBandGapsAsIntegrityFailure(t *testing.T) {
	// A definition with a hole in its bands, built by hand to bypass the
	// registry's validation.
	def := meanDefinition()
	def.Subscales[0].Bands = []models.ScoreBand{
		{Min: 0, Max: 2, Label: "Low"},
		{Min: 4, Max: 5, Label: "High"},
	}

	_, err := Score(def, []models.Answer{
		{ItemID: "A", Value: number(3)},
		{ItemID: "B", Value: number(3)},
	})

	assert.ErrorIs(t, err, ErrScoreOutOfDefinedRange)
}

func TestScoreFinalBandUpperBoundIsInclusive(t *testing.T) {
	result, err := Score(meanDefinition(), []models.Answer{
		{ItemID: "A", Value: number(5)},
		{ItemID: "B", Value: number(5)},
	})

	assert.Nil(t, err)
	assert.Equal(t, 5.0, result.SubscaleScores["core"].Value)
	assert.Equal(t, "High", result.SubscaleScores["core"].Band)
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		value     float64
		precision int
		want      float64
	}{
		{2.345, 2, 2.35},
		{2.344, 2, 2.34},
		{2.5, 0, 3},
		{3.5, 0, 4},
		{1.25, 1, 1.3},
		{1.0, 2, 1.0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, roundHalfUp(c.value, c.precision), "roundHalfUp(%v, %d)", c.value, c.precision)
	}
}
