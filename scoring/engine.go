// Package scoring computes clinical framework scores from raw respondent
// answers. The engine is a pure function of (definition, answers): identical
// inputs always produce identical subscale scores, total, band labels and
// flags, which is what keeps results auditable and reproducible.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bakerhealth/baker-api/models"
)

var (
	// ErrIncompleteAnswers means a required or contributing item has no answer
	ErrIncompleteAnswers = errors.New("incomplete answers")
	// ErrInvalidAnswer means an answer value falls outside its item's response domain
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrUnknownItem means an answer references an item the definition does not declare
	ErrUnknownItem = errors.New("unknown item")
	// ErrScoreOutOfDefinedRange means no score band contains a computed value.
	// That is a definition integrity bug, never a respondent error, and is
	// reported rather than silently clamped.
	ErrScoreOutOfDefinedRange = errors.New("score outside defined bands")
)

// ItemError reports a problem with a single answer.
type ItemError struct {
	ItemID string
	Detail string
	err    error
}

func (e *ItemError) Error() string { return e.Detail }
func (e *ItemError) Unwrap() error { return e.err }

// IncompleteError lists the items that still need answers.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "missing answers for: " + strings.Join(e.Missing, ", ")
}
func (e *IncompleteError) Unwrap() error { return ErrIncompleteAnswers }

// Score validates the answers against the definition's items and computes
// every subscale score, the total score, band labels and flags. Nothing is
// computed if any answer fails validation. The caller fills in identity and
// timestamp fields on the returned result.
func Score(def *models.FrameworkDefinition, answers []models.Answer) (*models.ScoreResult, error) {
	values, err := validateAnswers(def, answers)
	if err != nil {
		return nil, err
	}

	subscaleScores := make(map[string]models.SubscaleScore, len(def.Subscales))
	subscaleValues := make(map[string]float64, len(def.Subscales))
	for _, sc := range def.Subscales {
		value, err := aggregate(sc, values)
		if err != nil {
			return nil, err
		}
		band, ok := bandFor(value, sc.Bands)
		if !ok {
			return nil, fmt.Errorf("%w: subscale %q value %v", ErrScoreOutOfDefinedRange, sc.Name, value)
		}
		subscaleScores[sc.Name] = models.SubscaleScore{Value: value, Band: band}
		subscaleValues[sc.Name] = value
	}

	total := totalScore(def, subscaleValues)
	totalBand, ok := bandFor(total, def.TotalBands)
	if !ok {
		return nil, fmt.Errorf("%w: total value %v", ErrScoreOutOfDefinedRange, total)
	}

	return &models.ScoreResult{
		FrameworkCode:  def.Code,
		Version:        def.Version,
		SubscaleScores: subscaleScores,
		Total:          models.SubscaleScore{Value: total, Band: totalBand},
		Flags:          evaluateFlags(def.Flags, subscaleValues, total),
	}, nil
}

// validateAnswers checks every answer against its item's response domain and
// that every required item is answered, returning numeric values per item.
func validateAnswers(def *models.FrameworkDefinition, answers []models.Answer) (map[string]float64, error) {
	items := make(map[string]models.Item, len(def.Items))
	for _, it := range def.Items {
		items[it.ID] = it
	}

	values := make(map[string]float64, len(answers))
	for _, a := range answers {
		item, ok := items[a.ItemID]
		if !ok {
			return nil, &ItemError{ItemID: a.ItemID, err: ErrUnknownItem,
				Detail: fmt.Sprintf("unknown item %q", a.ItemID)}
		}
		if _, dup := values[a.ItemID]; dup {
			return nil, &ItemError{ItemID: a.ItemID, err: ErrInvalidAnswer,
				Detail: fmt.Sprintf("duplicate answer for item %q", a.ItemID)}
		}
		value, err := numericValue(item, a.Value)
		if err != nil {
			return nil, err
		}
		values[a.ItemID] = value
	}

	var missing []string
	for _, it := range def.Items {
		if it.Required {
			if _, ok := values[it.ID]; !ok {
				missing = append(missing, it.ID)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &IncompleteError{Missing: missing}
	}
	return values, nil
}

// numericValue maps one answer onto the numeric scale of its item.
func numericValue(item models.Item, v models.AnswerValue) (float64, error) {
	switch item.Domain.Kind {
	case models.DomainLikert:
		if v.Number == nil {
			return 0, invalidAnswer(item.ID, "expected a numeric rating")
		}
		n := *v.Number
		if n != math.Trunc(n) {
			return 0, invalidAnswer(item.ID, fmt.Sprintf("rating %v is not a whole number", n))
		}
		if n < item.Domain.Min || n > item.Domain.Max {
			return 0, invalidAnswer(item.ID, fmt.Sprintf("rating %v outside %v-%v", n, item.Domain.Min, item.Domain.Max))
		}
		return n, nil
	case models.DomainNumeric:
		if v.Number == nil {
			return 0, invalidAnswer(item.ID, "expected a numeric value")
		}
		n := *v.Number
		if n < item.Domain.Min || n > item.Domain.Max {
			return 0, invalidAnswer(item.ID, fmt.Sprintf("value %v outside %v-%v", n, item.Domain.Min, item.Domain.Max))
		}
		return n, nil
	case models.DomainChoice:
		if v.Choice == nil {
			return 0, invalidAnswer(item.ID, "expected an option value")
		}
		for _, opt := range item.Domain.Options {
			if opt.Value == *v.Choice {
				return opt.Weight, nil
			}
		}
		return 0, invalidAnswer(item.ID, fmt.Sprintf("option %q is not one of the declared options", *v.Choice))
	case models.DomainYesNo:
		if v.Bool == nil {
			return 0, invalidAnswer(item.ID, "expected a yes/no value")
		}
		if *v.Bool {
			return 1, nil
		}
		return 0, nil
	}
	return 0, invalidAnswer(item.ID, fmt.Sprintf("item has unsupported response domain %q", item.Domain.Kind))
}

func invalidAnswer(itemID, detail string) error {
	return &ItemError{ItemID: itemID, err: ErrInvalidAnswer,
		Detail: fmt.Sprintf("item %q: %s", itemID, detail)}
}

// aggregate applies a subscale's rule over its contributing values. Every
// contributing item must be answered, even optional ones, since a partial
// aggregate would not be reproducible.
func aggregate(sc models.Subscale, values map[string]float64) (float64, error) {
	var missing []string
	contributing := make([]float64, 0, len(sc.ItemIDs))
	for _, id := range sc.ItemIDs {
		v, ok := values[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if sc.Rule == models.RuleWeightedSum {
			v *= sc.Weights[id]
		}
		contributing = append(contributing, v)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, &IncompleteError{Missing: missing}
	}

	var sum float64
	for _, v := range contributing {
		sum += v
	}
	if sc.Rule == models.RuleMean {
		return roundHalfUp(sum/float64(len(contributing)), sc.Precision), nil
	}
	return sum, nil
}

// totalScore aggregates subscale scores per the framework's total rule.
func totalScore(def *models.FrameworkDefinition, subscaleValues map[string]float64) float64 {
	var sum float64
	for _, sc := range def.Subscales {
		sum += subscaleValues[sc.Name]
	}
	if def.TotalRule == models.RuleMean {
		return roundHalfUp(sum/float64(len(def.Subscales)), def.TotalPrecision)
	}
	return sum
}

// bandFor scans the ordered bands and returns the first whose range contains
// the value. Band upper bounds are exclusive except on the final band.
func bandFor(value float64, bands []models.ScoreBand) (string, bool) {
	for i, b := range bands {
		last := i == len(bands)-1
		if value >= b.Min && (value < b.Max || (last && value <= b.Max)) {
			return b.Label, true
		}
	}
	return "", false
}

// evaluateFlags runs every flag rule independently and returns the codes that
// fired, sorted so results are deterministic.
func evaluateFlags(rules []models.FlagRule, subscaleValues map[string]float64, total float64) []string {
	fired := []string{}
	for _, rule := range rules {
		value := total
		if rule.Target != models.FlagTargetTotal {
			value = subscaleValues[rule.Target]
		}
		var hit bool
		switch rule.Op {
		case models.OpGreaterOrEqual:
			hit = value >= rule.Threshold
		case models.OpGreaterThan:
			hit = value > rule.Threshold
		case models.OpLessOrEqual:
			hit = value <= rule.Threshold
		case models.OpLessThan:
			hit = value < rule.Threshold
		}
		if hit {
			fired = append(fired, rule.Code)
		}
	}
	sort.Strings(fired)
	return fired
}

// roundHalfUp rounds to the given number of decimal places, with ties going
// away from zero's floor (0.5 rounds up). Stated once, applied everywhere a
// mean is computed, so scores are bit-reproducible.
func roundHalfUp(value float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Floor(value*p+0.5) / p
}
