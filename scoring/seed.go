package scoring

import "github.com/bakerhealth/baker-api/models"

// RegisterSeed publishes the built-in clinical frameworks. Called once at
// startup; any validation failure here is a deployment-stopping bug.
func RegisterSeed(r *Registry) error {
	for _, def := range SeedDefinitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefinitions returns the framework versions this build ships with.
func SeedDefinitions() []*models.FrameworkDefinition {
	return []*models.FrameworkDefinition{
		abaV1(),
		efaV1(),
	}
}

func likert(id, text string) models.Item {
	return models.Item{
		ID:       id,
		Text:     text,
		Required: true,
		Domain:   models.ResponseDomain{Kind: models.DomainLikert, Min: 1, Max: 5},
	}
}

// abaV1 is the Adaptive Behaviour Assessment, first published rule set.
func abaV1() *models.FrameworkDefinition {
	return &models.FrameworkDefinition{
		Code:         "ABA",
		Version:      1,
		Name:         "Adaptive Behaviour Assessment",
		AssessmentID: "aba-core",
		Items: []models.Item{
			likert("A1", "Expresses needs and preferences clearly"),
			likert("A2", "Follows multi-step spoken instructions"),
			likert("A3", "Initiates conversation with familiar people"),
			likert("A4", "Manages personal hygiene independently"),
			likert("A5", "Prepares simple meals or snacks"),
			likert("A6", "Keeps personal spaces organised"),
		},
		Subscales: []models.Subscale{
			{
				Name:    "communication",
				ItemIDs: []string{"A1", "A2", "A3"},
				Rule:    models.RuleSum,
				Bands: []models.ScoreBand{
					{Min: 3, Max: 8, Label: "Low"},
					{Min: 8, Max: 12, Label: "Moderate"},
					{Min: 12, Max: 15, Label: "High"},
				},
			},
			{
				Name:      "daily_living",
				ItemIDs:   []string{"A4", "A5", "A6"},
				Rule:      models.RuleMean,
				Precision: 1,
				Bands: []models.ScoreBand{
					{Min: 1, Max: 2.5, Label: "Low"},
					{Min: 2.5, Max: 4, Label: "Moderate"},
					{Min: 4, Max: 5, Label: "High"},
				},
			},
		},
		TotalRule: models.RuleSum,
		TotalBands: []models.ScoreBand{
			{Min: 4, Max: 10, Label: "Substantial support"},
			{Min: 10, Max: 16, Label: "Some support"},
			{Min: 16, Max: 20, Label: "Independent"},
		},
		Flags: []models.FlagRule{
			{Code: "ABA-COMM-CRITICAL", Target: "communication", Op: models.OpLessOrEqual, Threshold: 5},
			{Code: "ABA-DL-CRITICAL", Target: "daily_living", Op: models.OpLessOrEqual, Threshold: 1.5},
		},
	}
}

// efaV1 is the Executive Function Assessment, first published rule set.
func efaV1() *models.FrameworkDefinition {
	return &models.FrameworkDefinition{
		Code:         "EFA",
		Version:      1,
		Name:         "Executive Function Assessment",
		AssessmentID: "efa-core",
		Items: []models.Item{
			likert("E1", "Becomes upset when plans change unexpectedly"),
			likert("E2", "Stays frustrated long after a setback"),
			likert("E3", "Drifts off a task within 20 minutes"),
			likert("E4", "Struggles to return to a task after an interruption"),
			{
				ID:       "E5",
				Text:     "How often are belongings lost during a typical week?",
				Required: true,
				Domain: models.ResponseDomain{
					Kind: models.DomainChoice,
					Options: []models.ChoiceOption{
						{Value: "never", Weight: 0},
						{Value: "sometimes", Weight: 1},
						{Value: "often", Weight: 2},
					},
				},
			},
			{
				ID:       "E6",
				Text:     "Were any tasks abandoned mid-way in the last week?",
				Required: true,
				Domain:   models.ResponseDomain{Kind: models.DomainYesNo},
			},
		},
		Subscales: []models.Subscale{
			{
				Name:    "regulation",
				ItemIDs: []string{"E1", "E2"},
				Rule:    models.RuleWeightedSum,
				Weights: map[string]float64{"E1": 1, "E2": 2},
				Bands: []models.ScoreBand{
					{Min: 3, Max: 9, Label: "Typical"},
					{Min: 9, Max: 15, Label: "Elevated"},
				},
			},
			{
				Name:      "attention",
				ItemIDs:   []string{"E3", "E4"},
				Rule:      models.RuleMean,
				Precision: 2,
				Bands: []models.ScoreBand{
					{Min: 1, Max: 3, Label: "Typical"},
					{Min: 3, Max: 5, Label: "Elevated"},
				},
			},
			{
				Name:    "behaviour",
				ItemIDs: []string{"E5", "E6"},
				Rule:    models.RuleSum,
				Bands: []models.ScoreBand{
					{Min: 0, Max: 2, Label: "Typical"},
					{Min: 2, Max: 3, Label: "Elevated"},
				},
			},
		},
		TotalRule: models.RuleSum,
		TotalBands: []models.ScoreBand{
			{Min: 4, Max: 14, Label: "Low concern"},
			{Min: 14, Max: 23, Label: "Elevated concern"},
		},
		Flags: []models.FlagRule{
			{Code: "EFA-REGULATION", Target: "regulation", Op: models.OpGreaterOrEqual, Threshold: 9},
			{Code: "EFA-BEHAVIOUR", Target: "behaviour", Op: models.OpGreaterOrEqual, Threshold: 2},
			{Code: "EFA-GLOBAL", Target: models.FlagTargetTotal, Op: models.OpGreaterOrEqual, Threshold: 14},
		},
	}
}
