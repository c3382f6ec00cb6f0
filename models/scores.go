package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type (
	// AnswerValue holds one respondent answer, which arrives as a JSON number,
	// string or boolean depending on the item's response domain
	AnswerValue struct {
		Number *float64
		Choice *string
		Bool   *bool
	}

	// Answer is one respondent answer keyed by the item it responds to
	Answer struct {
		ItemID string      `json:"itemId"`
		Value  AnswerValue `json:"value"`
	}

	// PostResponses represents the request body for 'POST /respondent/responses'
	PostResponses struct {
		Token   string   `json:"token"`
		Answers []Answer `json:"answers"`
	}

	// SubscaleScore is a computed numeric score with its qualitative band label
	SubscaleScore struct {
		Value float64 `json:"value"`
		Band  string  `json:"band"`
	}

	// ScoreResult is the immutable outcome of scoring one completed submission
	// against the framework version pinned at compute time. Re-scoring creates
	// a new record rather than mutating this one.
	ScoreResult struct {
		AssessmentInstanceID string                   `json:"assessmentInstanceId"`
		TenantID             string                   `json:"tenantId"`
		LinkID               string                   `json:"linkId,omitempty"`
		FrameworkCode        string                   `json:"frameworkCode"`
		Version              int                      `json:"version"`
		SubscaleScores       map[string]SubscaleScore `json:"subscaleScores"`
		Total                SubscaleScore            `json:"totalScore"`
		Flags                []string                 `json:"flags"`
		ComputedAt           time.Time                `json:"computedAt"`
	}

	// ScoreResultResponse represents the response from 'POST /respondent/responses'
	ScoreResultResponse struct {
		Data ScoreResult `json:"data"`
	}
)

// UnmarshalJSON accepts a number, string or boolean answer value.
func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		v.Number = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v.Choice = &s
		return nil
	}
	var t bool
	if err := json.Unmarshal(b, &t); err == nil {
		v.Bool = &t
		return nil
	}
	return fmt.Errorf("unsupported answer value %s", string(b))
}

// MarshalJSON writes back whichever representation the answer arrived in.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Choice != nil:
		return json.Marshal(*v.Choice)
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	}
	return []byte("null"), nil
}
