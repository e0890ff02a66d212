// =============================================================================
// Bulk Poster - Schema Tables
// =============================================================================
//
// This package holds the reference data the remote bulk posting interface
// validates against: category codes, areas and their subareas, and the
// enumerated attribute values of the optional sub-schemas.
//
// TABLE FILES (embedded, see tables/):
//   categories.yaml              - category codes, grouped
//   areas.yaml                   - area codes, each with its subarea codes
//   auto_basics.yaml             - vehicle attribute enumerations
//   housing_basics.yaml          - housing attribute enumerations
//   housing_terms.yaml           - rent periods
//   events.yaml                  - event flag attribute names
//   generic_contact_methods.yaml - generic contact method names
//   optionals.yaml               - the closed list of optional sub-schemas
//
// LIFECYCLE:
//   Tables are parsed once, on first use, and never mutated afterwards. A
//   *Tables value is safe for concurrent reads from any number of batches.
//
// =============================================================================

package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var embeddedTables embed.FS

// =============================================================================
// FIXED RANGES
// =============================================================================

const (
	// MinAutoYear and MaxAutoYear bound the accepted auto_year values.
	MinAutoYear = 1900
	MaxAutoYear = 2014

	// MinImagePosition and MaxImagePosition bound an image's position.
	MinImagePosition = 0
	MaxImagePosition = 23
)

// =============================================================================
// TABLE TYPES
// =============================================================================

// Category is a single postable category.
type Category struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// CategoryGroup is a named group of categories (housing, jobs, ...).
type CategoryGroup struct {
	Group      string     `yaml:"group"`
	Categories []Category `yaml:"categories"`
}

// Subarea is a subdivision of an Area.
type Subarea struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Area is a posting site. Subareas may be empty.
type Area struct {
	Code     string    `yaml:"code"`
	Name     string    `yaml:"name"`
	Subareas []Subarea `yaml:"subareas"`
}

// Tables is the full, read-only set of reference data.
type Tables struct {
	CategoryGroups        []CategoryGroup
	Areas                 []Area
	AutoBasics            map[string][]string
	HousingBasics         map[string][]string
	RentPeriods           []string
	Events                []string
	GenericContactMethods []string
	AllowedOptionals      []string

	categoryCodes []string
	categorySet   map[string]struct{}
	areaCodes     []string
	areaIndex     map[string]*Area
	optionalSet   map[string]struct{}
	autoYears     []string
}

// =============================================================================
// LOADING
// =============================================================================

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the tables compiled into the binary. The embedded files
// are part of the build, so a parse failure is a programming error and
// panics.
func Default() *Tables {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedTables, "tables")
		if err != nil {
			defaultErr = err
			return
		}
		defaultTables, defaultErr = Load(sub)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("schema: embedded tables are invalid: %v", defaultErr))
	}
	return defaultTables
}

// Load parses every table file from fsys. The file names are the ones listed
// in the package comment.
func Load(fsys fs.FS) (*Tables, error) {
	t := &Tables{}

	if err := readYAML(fsys, "categories.yaml", &t.CategoryGroups); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, "areas.yaml", &t.Areas); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, "auto_basics.yaml", &t.AutoBasics); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, "housing_basics.yaml", &t.HousingBasics); err != nil {
		return nil, err
	}

	var terms struct {
		RentPeriod []string `yaml:"rent_period"`
	}
	if err := readYAML(fsys, "housing_terms.yaml", &terms); err != nil {
		return nil, err
	}
	t.RentPeriods = terms.RentPeriod

	var events struct {
		Events []string `yaml:"events"`
	}
	if err := readYAML(fsys, "events.yaml", &events); err != nil {
		return nil, err
	}
	t.Events = events.Events

	var methods struct {
		Methods []string `yaml:"methods"`
	}
	if err := readYAML(fsys, "generic_contact_methods.yaml", &methods); err != nil {
		return nil, err
	}
	t.GenericContactMethods = methods.Methods

	var optionals struct {
		Allowed []string `yaml:"allowed"`
	}
	if err := readYAML(fsys, "optionals.yaml", &optionals); err != nil {
		return nil, err
	}
	t.AllowedOptionals = optionals.Allowed

	t.buildIndexes()
	return t, nil
}

// readYAML reads and decodes a single table file.
func readYAML(fsys fs.FS, name string, out interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse table %s: %w", name, err)
	}
	return nil
}

// buildIndexes derives the lookup sets used by validation.
func (t *Tables) buildIndexes() {
	t.categorySet = make(map[string]struct{})
	for _, group := range t.CategoryGroups {
		for _, c := range group.Categories {
			t.categoryCodes = append(t.categoryCodes, c.Code)
			t.categorySet[c.Code] = struct{}{}
		}
	}

	t.areaIndex = make(map[string]*Area, len(t.Areas))
	for i := range t.Areas {
		t.areaCodes = append(t.areaCodes, t.Areas[i].Code)
		t.areaIndex[t.Areas[i].Code] = &t.Areas[i]
	}

	t.optionalSet = make(map[string]struct{}, len(t.AllowedOptionals))
	for _, name := range t.AllowedOptionals {
		t.optionalSet[name] = struct{}{}
	}

	for year := MinAutoYear; year <= MaxAutoYear; year++ {
		t.autoYears = append(t.autoYears, strconv.Itoa(year))
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

// CategoryCodes returns every category code, flattened across groups.
func (t *Tables) CategoryCodes() []string { return t.categoryCodes }

// IsCategory reports whether code is a known category.
func (t *Tables) IsCategory(code string) bool {
	_, ok := t.categorySet[code]
	return ok
}

// AreaCodes returns every area code in table order.
func (t *Tables) AreaCodes() []string { return t.areaCodes }

// IsArea reports whether code is a known area.
func (t *Tables) IsArea(code string) bool {
	_, ok := t.areaIndex[code]
	return ok
}

// SubareaCodes returns the subarea codes of area, or nil for an unknown area.
func (t *Tables) SubareaCodes(area string) []string {
	a, ok := t.areaIndex[area]
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(a.Subareas))
	for _, s := range a.Subareas {
		codes = append(codes, s.Code)
	}
	return codes
}

// IsSubarea reports whether subarea belongs to area.
func (t *Tables) IsSubarea(area, subarea string) bool {
	for _, code := range t.SubareaCodes(area) {
		if code == subarea {
			return true
		}
	}
	return false
}

// IsOptional reports whether name is one of the allowed optional sub-schemas.
func (t *Tables) IsOptional(name string) bool {
	_, ok := t.optionalSet[name]
	return ok
}

// AutoYears returns "1900" through "2014" as strings.
func (t *Tables) AutoYears() []string { return t.autoYears }

// Contains reports whether value is one of values.
func Contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
