package models

// ResponseKind enumerates the response domains an item can declare.
type ResponseKind string

const (
	// DomainLikert is an integer rating between Min and Max inclusive
	DomainLikert ResponseKind = "likert"
	// DomainNumeric is any numeric value between Min and Max inclusive
	DomainNumeric ResponseKind = "numeric"
	// DomainChoice is a single selection from Options, scored by option weight
	DomainChoice ResponseKind = "choice"
	// DomainYesNo is a boolean answer scored 1 for yes, 0 for no
	DomainYesNo ResponseKind = "yes_no"
)

// AggregationRule enumerates how contributing values combine into a score.
type AggregationRule string

const (
	// RuleSum is the arithmetic total of contributing values
	RuleSum AggregationRule = "sum"
	// RuleMean is the total divided by the item count, rounded half-up
	// to the declared precision
	RuleMean AggregationRule = "mean"
	// RuleWeightedSum multiplies each value by its per-item weight before summing
	RuleWeightedSum AggregationRule = "weighted_sum"
)

// Flag comparison operators. A flag fires when "<target> <op> <threshold>" holds.
const (
	OpGreaterOrEqual = "gte"
	OpGreaterThan    = "gt"
	OpLessOrEqual    = "lte"
	OpLessThan       = "lt"
)

// FlagTargetTotal makes a flag rule read the total score rather than a subscale.
const FlagTargetTotal = "total"

type (
	// ChoiceOption is one selectable answer for a choice item, with the numeric
	// weight it contributes to scoring
	ChoiceOption struct {
		Value  string  `json:"value"`
		Weight float64 `json:"weight"`
	}

	// ResponseDomain declares the values an item accepts. Min/Max apply to
	// likert and numeric kinds, Options to choice kinds.
	ResponseDomain struct {
		Kind    ResponseKind   `json:"kind"`
		Min     float64        `json:"min,omitempty"`
		Max     float64        `json:"max,omitempty"`
		Options []ChoiceOption `json:"options,omitempty"`
	}

	// Item is a single question in a framework definition
	Item struct {
		ID       string         `json:"id"`
		Text     string         `json:"text"`
		Required bool           `json:"required"`
		Domain   ResponseDomain `json:"domain"`
	}

	// ScoreBand maps a numeric range onto a qualitative label. Bands are
	// ordered, with Min inclusive and Max exclusive except on the final band,
	// where Max is inclusive so the top of the range is covered.
	ScoreBand struct {
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Label string  `json:"label"`
	}

	// Subscale groups contributing items under one aggregation rule.
	// Weights is only consulted for the weighted_sum rule, Precision only for mean.
	Subscale struct {
		Name      string             `json:"name"`
		ItemIDs   []string           `json:"itemIds"`
		Rule      AggregationRule    `json:"rule"`
		Weights   map[string]float64 `json:"weights,omitempty"`
		Precision int                `json:"precision,omitempty"`
		Bands     []ScoreBand        `json:"bands"`
	}

	// FlagRule is a threshold predicate over one subscale score or the total.
	// Rules are evaluated independently; several may fire for one submission.
	FlagRule struct {
		Code      string  `json:"code"`
		Target    string  `json:"target"`
		Op        string  `json:"op"`
		Threshold float64 `json:"threshold"`
	}

	// FrameworkDefinition is a published, versioned scoring rule set for one
	// clinical framework. Definitions are immutable once registered; corrected
	// rules ship as a new version.
	FrameworkDefinition struct {
		Code           string          `json:"code"`
		Version        int             `json:"version"`
		Name           string          `json:"name"`
		AssessmentID   string          `json:"assessmentId"`
		Items          []Item          `json:"items"`
		Subscales      []Subscale      `json:"subscales"`
		TotalRule      AggregationRule `json:"totalRule"`
		TotalPrecision int             `json:"totalPrecision,omitempty"`
		TotalBands     []ScoreBand     `json:"totalBands"`
		Flags          []FlagRule      `json:"flags,omitempty"`
	}

	// FrameworkInfo represents one entry in the response from 'GET /frameworks'
	FrameworkInfo struct {
		Code         string `json:"code"`
		Version      int    `json:"version"`
		Name         string `json:"name"`
		AssessmentID string `json:"assessmentId"`
	}

	// Frameworks represents the response from 'GET /frameworks'
	Frameworks struct {
		Data []FrameworkInfo `json:"data"`
	}

	// FrameworkResponse represents the response from 'GET /frameworks/{code}/{version}'
	FrameworkResponse struct {
		Data FrameworkDefinition `json:"data"`
	}
)
