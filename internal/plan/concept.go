package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNoConcept is returned when the concept file does not exist.
var ErrNoConcept = errors.New("concept file not found")

type conceptManifest struct {
	Concept struct {
		Name        string   `toml:"name"`
		Description string   `toml:"description"`
		AppType     string   `toml:"app_type"`
		Complexity  string   `toml:"complexity"`
		UserRoles   []string `toml:"user_roles"`
		HasLayout   bool     `toml:"has_layout"`
	} `toml:"concept"`
	Features []struct {
		ID          string `toml:"id"`
		Name        string `toml:"name"`
		Description string `toml:"description"`
		Priority    int    `toml:"priority"`
	} `toml:"features"`
}

// LoadConcept reads a concept TOML file and returns a validated Concept.
// Missing optional fields are defaulted: app type to FULL_STACK, overall
// complexity to the highest complexity among the classified features.
func LoadConcept(path string) (Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Concept{}, ErrNoConcept
		}
		return Concept{}, fmt.Errorf("reading concept file: %w", err)
	}

	var m conceptManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Concept{}, fmt.Errorf("parsing concept file: %w", err)
	}

	c := Concept{
		Name:        strings.TrimSpace(m.Concept.Name),
		Description: strings.TrimSpace(m.Concept.Description),
		AppType:     AppType(m.Concept.AppType),
		Complexity:  Complexity(m.Concept.Complexity),
		UserRoles:   m.Concept.UserRoles,
		HasLayout:   m.Concept.HasLayout,
	}
	for i, f := range m.Features {
		id := f.ID
		if id == "" {
			id = fmt.Sprintf("f%d", i+1)
		}
		priority := f.Priority
		if priority == 0 {
			priority = i + 1
		}
		c.Features = append(c.Features, Feature{
			ID:          id,
			Name:        strings.TrimSpace(f.Name),
			Description: strings.TrimSpace(f.Description),
			Priority:    priority,
		})
	}

	applyConceptDefaults(&c)
	if err := validateConcept(c); err != nil {
		return Concept{}, err
	}
	return c, nil
}

func applyConceptDefaults(c *Concept) {
	if c.AppType == "" {
		c.AppType = AppTypeFullStack
	}
	if c.Complexity == "" {
		c.Complexity = overallComplexity(c.Features)
	}
}

// overallComplexity is the highest complexity among the classified features,
// defaulting to moderate for an empty list.
func overallComplexity(features []Feature) Complexity {
	overall := ComplexitySimple
	for _, f := range features {
		fc := ClassifyFeature(f)
		if complexityRank[fc.Complexity] > complexityRank[overall] {
			overall = fc.Complexity
		}
	}
	if len(features) == 0 {
		return ComplexityModerate
	}
	return overall
}

func validateConcept(c Concept) error {
	if c.Name == "" {
		return errors.New("concept: name is required")
	}
	if len(c.Features) == 0 {
		return errors.New("concept: at least one feature is required")
	}
	if c.AppType != AppTypeFrontendOnly && c.AppType != AppTypeFullStack {
		return fmt.Errorf("concept: unknown app_type %q", c.AppType)
	}
	if _, ok := complexityRank[c.Complexity]; !ok {
		return fmt.Errorf("concept: unknown complexity %q", c.Complexity)
	}
	for _, f := range c.Features {
		if f.Name == "" {
			return fmt.Errorf("concept: feature %s has no name", f.ID)
		}
	}
	return nil
}
