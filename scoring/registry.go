package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bakerhealth/baker-api/models"
)

var (
	// ErrUnknownFramework means no definition is registered under the framework code
	ErrUnknownFramework = errors.New("unknown framework")
	// ErrUnknownVersion means the framework exists but not at the requested version
	ErrUnknownVersion = errors.New("unknown framework version")
)

// bandEpsilon absorbs float noise when checking band contiguity.
const bandEpsilon = 1e-9

// Registry holds versioned scoring rule definitions per clinical framework.
// Definitions are validated and immutable once registered; corrected rule
// sets must ship as a new version so historical results stay reproducible.
type Registry struct {
	mu           sync.RWMutex
	frameworks   map[string]map[int]*models.FrameworkDefinition
	byAssessment map[string]*models.FrameworkDefinition
}

// NewRegistry returns an empty framework registry.
func NewRegistry() *Registry {
	return &Registry{
		frameworks:   map[string]map[int]*models.FrameworkDefinition{},
		byAssessment: map[string]*models.FrameworkDefinition{},
	}
}

// Register validates and publishes a definition. Re-registering an existing
// code and version is refused.
func (r *Registry) Register(def *models.FrameworkDefinition) error {
	if err := validateDefinition(def); err != nil {
		return fmt.Errorf("framework %s v%d: %w", def.Code, def.Version, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.frameworks[def.Code]
	if !ok {
		versions = map[int]*models.FrameworkDefinition{}
		r.frameworks[def.Code] = versions
	}
	if _, exists := versions[def.Version]; exists {
		return fmt.Errorf("framework %s v%d is already published", def.Code, def.Version)
	}
	versions[def.Version] = def
	if current, ok := r.byAssessment[def.AssessmentID]; !ok || def.Version > current.Version {
		r.byAssessment[def.AssessmentID] = def
	}
	return nil
}

// Get returns the definition for an exact framework code and version.
func (r *Registry) Get(code string, version int) (*models.FrameworkDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.frameworks[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFramework, code)
	}
	def, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnknownVersion, code, version)
	}
	return def, nil
}

// GetByAssessment returns the latest published definition for an assessment.
// New submissions score against this; existing results keep the version
// pinned when they were computed.
func (r *Registry) GetByAssessment(assessmentID string) (*models.FrameworkDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byAssessment[assessmentID]
	if !ok {
		return nil, fmt.Errorf("%w: no framework for assessment %s", ErrUnknownFramework, assessmentID)
	}
	return def, nil
}

// List returns every registered definition ordered by code then version.
func (r *Registry) List() []*models.FrameworkDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var defs []*models.FrameworkDefinition
	for _, versions := range r.frameworks {
		for _, def := range versions {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Code != defs[j].Code {
			return defs[i].Code < defs[j].Code
		}
		return defs[i].Version < defs[j].Version
	})
	return defs
}

func validateDefinition(def *models.FrameworkDefinition) error {
	if def.Code == "" || def.Version < 1 {
		return errors.New("code and a version of at least 1 are required")
	}
	if def.AssessmentID == "" {
		return errors.New("an assessment binding is required")
	}
	if len(def.Items) == 0 || len(def.Subscales) == 0 {
		return errors.New("at least one item and one subscale are required")
	}

	items := make(map[string]models.Item, len(def.Items))
	for _, it := range def.Items {
		if it.ID == "" {
			return errors.New("every item needs an id")
		}
		if _, dup := items[it.ID]; dup {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		if err := validateDomain(it); err != nil {
			return err
		}
		items[it.ID] = it
	}

	var totalLo, totalHi float64
	seen := map[string]bool{}
	for _, sc := range def.Subscales {
		if sc.Name == "" || seen[sc.Name] {
			return fmt.Errorf("subscale names must be unique and non-empty")
		}
		seen[sc.Name] = true
		lo, hi, err := subscaleRange(sc, items)
		if err != nil {
			return err
		}
		if err := validateBands(sc.Bands, lo, hi); err != nil {
			return fmt.Errorf("subscale %q: %w", sc.Name, err)
		}
		totalLo += lo
		totalHi += hi
	}

	switch def.TotalRule {
	case models.RuleSum:
	case models.RuleMean:
		n := float64(len(def.Subscales))
		totalLo = roundHalfUp(totalLo/n, def.TotalPrecision)
		totalHi = roundHalfUp(totalHi/n, def.TotalPrecision)
	default:
		return fmt.Errorf("unsupported total rule %q", def.TotalRule)
	}
	if err := validateBands(def.TotalBands, totalLo, totalHi); err != nil {
		return fmt.Errorf("total: %w", err)
	}

	for _, rule := range def.Flags {
		if rule.Code == "" {
			return errors.New("every flag rule needs a code")
		}
		switch rule.Op {
		case models.OpGreaterOrEqual, models.OpGreaterThan, models.OpLessOrEqual, models.OpLessThan:
		default:
			return fmt.Errorf("flag %q: unsupported operator %q", rule.Code, rule.Op)
		}
		if rule.Target != models.FlagTargetTotal && !seen[rule.Target] {
			return fmt.Errorf("flag %q references unknown target %q", rule.Code, rule.Target)
		}
	}
	return nil
}

func validateDomain(it models.Item) error {
	switch it.Domain.Kind {
	case models.DomainLikert, models.DomainNumeric:
		if it.Domain.Min >= it.Domain.Max {
			return fmt.Errorf("item %q: domain min must be below max", it.ID)
		}
	case models.DomainChoice:
		if len(it.Domain.Options) == 0 {
			return fmt.Errorf("item %q: choice domain needs options", it.ID)
		}
	case models.DomainYesNo:
	default:
		return fmt.Errorf("item %q: unsupported response domain %q", it.ID, it.Domain.Kind)
	}
	return nil
}

// subscaleRange computes the lowest and highest value a subscale can take,
// which its bands must cover exactly.
func subscaleRange(sc models.Subscale, items map[string]models.Item) (float64, float64, error) {
	if len(sc.ItemIDs) == 0 {
		return 0, 0, fmt.Errorf("subscale %q has no contributing items", sc.Name)
	}
	var lo, hi float64
	for _, id := range sc.ItemIDs {
		it, ok := items[id]
		if !ok {
			return 0, 0, fmt.Errorf("subscale %q references unknown item %q", sc.Name, id)
		}
		itemLo, itemHi := domainRange(it)
		if sc.Rule == models.RuleWeightedSum {
			w, ok := sc.Weights[id]
			if !ok {
				return 0, 0, fmt.Errorf("subscale %q is weighted but has no weight for item %q", sc.Name, id)
			}
			itemLo, itemHi = itemLo*w, itemHi*w
			if itemLo > itemHi {
				itemLo, itemHi = itemHi, itemLo
			}
		}
		lo += itemLo
		hi += itemHi
	}
	switch sc.Rule {
	case models.RuleSum, models.RuleWeightedSum:
		return lo, hi, nil
	case models.RuleMean:
		n := float64(len(sc.ItemIDs))
		return roundHalfUp(lo/n, sc.Precision), roundHalfUp(hi/n, sc.Precision), nil
	}
	return 0, 0, fmt.Errorf("subscale %q has unsupported rule %q", sc.Name, sc.Rule)
}

func domainRange(it models.Item) (float64, float64) {
	switch it.Domain.Kind {
	case models.DomainChoice:
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, opt := range it.Domain.Options {
			lo = math.Min(lo, opt.Weight)
			hi = math.Max(hi, opt.Weight)
		}
		return lo, hi
	case models.DomainYesNo:
		return 0, 1
	}
	return it.Domain.Min, it.Domain.Max
}

// validateBands requires ordered, contiguous, non-overlapping bands that are
// exhaustive over the computable range.
func validateBands(bands []models.ScoreBand, lo, hi float64) error {
	if len(bands) == 0 {
		return errors.New("score bands are required")
	}
	for i, b := range bands {
		if b.Label == "" {
			return errors.New("every band needs a label")
		}
		if b.Min >= b.Max {
			return fmt.Errorf("band %q: min must be below max", b.Label)
		}
		if i > 0 && math.Abs(b.Min-bands[i-1].Max) > bandEpsilon {
			return fmt.Errorf("band %q does not start where %q ends", b.Label, bands[i-1].Label)
		}
	}
	if bands[0].Min > lo+bandEpsilon {
		return fmt.Errorf("bands start at %v but scores can be as low as %v", bands[0].Min, lo)
	}
	if last := bands[len(bands)-1]; last.Max < hi-bandEpsilon {
		return fmt.Errorf("bands end at %v but scores can be as high as %v", last.Max, hi)
	}
	return nil
}
