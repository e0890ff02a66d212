// =============================================================================
// Bulk Poster - Posting Model
// =============================================================================
//
// A Posting is one classified ad. It carries:
//   - a Name, unique within a batch, used as the rdf:about / rdf:resource key
//     in the submission document and as the correlation key in responses
//   - the Required items every posting must have
//   - a closed set of Optional sub-schemas
//   - an append-only list of validation Errors
//   - the RemoteStatus, once a response has been parsed
//
// OPTIONAL SUB-SCHEMAS:
//   Optional is a struct with one field per allowed sub-schema, so an unknown
//   sub-schema cannot be represented by construction. Input documents may
//   still name unknown sub-schemas; the loader records those names in
//   Optional.Unknown and validation reports one error per name.
//
// =============================================================================

package posting

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/cl-bulk-poster/internal/schema"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

// =============================================================================
// SUB-SCHEMA NAMES
// =============================================================================
// These are the input keys of the optional sub-schemas. They match the
// allowed list in the schema tables.

const (
	SubImages        = "images"
	SubSubarea       = "subarea"
	SubNeighborhood  = "neighborhood"
	SubPrice         = "price"
	SubMapLocation   = "map_location"
	SubPONumber      = "po_number"
	SubHousingInfo   = "housing_info"
	SubBrokerInfo    = "broker_info"
	SubJobInfo       = "job_info"
	SubAutoBasics    = "auto_basics"
	SubEvents        = "events"
	SubForSale       = "forsale"
	SubGeneric       = "generic"
	SubHousingBasics = "housing_basics"
	SubHousingTerms  = "housing_terms"
	SubJobBasics     = "job_basics"
	SubPersonals     = "personals"
)

// =============================================================================
// POSTING
// =============================================================================

// Posting is a single ad in a batch.
type Posting struct {
	// Name identifies the posting within its batch.
	Name string

	// Required holds the fields every posting must carry.
	Required Required

	// Optional holds the optional sub-schemas that were supplied.
	Optional Optional

	// Errors accumulates validation errors. It is never cleared; validating
	// twice without changes doubles it.
	Errors []Error

	// Status is nil until a remote response mentioning this posting has
	// been parsed. Each parse replaces it.
	Status *types.RemoteStatus

	tables *schema.Tables
}

// New creates a Posting validated against the default schema tables.
func New(name string, required Required, optional Optional) *Posting {
	return NewWithTables(name, required, optional, schema.Default())
}

// NewWithTables creates a Posting validated against the given tables.
func NewWithTables(name string, required Required, optional Optional, tables *schema.Tables) *Posting {
	return &Posting{
		Name:     name,
		Required: required,
		Optional: optional,
		tables:   tables,
	}
}

// Tables returns the schema tables this posting validates against.
func (p *Posting) Tables() *schema.Tables {
	if p.tables == nil {
		p.tables = schema.Default()
	}
	return p.tables
}

// HasErrors reports whether any validation error has been recorded.
func (p *Posting) HasErrors() bool {
	return len(p.Errors) > 0
}

// =============================================================================
// REQUIRED ITEMS
// =============================================================================

// Required holds the mandatory fields. A nil pointer means the field was
// not supplied at all.
type Required struct {
	Title       *string
	Description *string
	Category    *string
	Area        *string
	ReplyEmail  *ReplyEmail
}

// ReplyEmail is the contact address and how it may be used.
type ReplyEmail struct {
	// Value is the email address itself.
	Value *string

	// Privacy is one of "A" (anonymize), "C" (show), or "P" (no replies).
	Privacy *string

	// OutsideContactOK is kept as supplied. Only the numbers 0 and 1 are
	// valid; the strings "0" and "1" are not.
	OutsideContactOK interface{}

	// OtherContactInfo is free text and may be nil.
	OtherContactInfo *string
}

// String returns a pointer to s. It keeps literal Required and ReplyEmail
// values short.
func String(s string) *string {
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// =============================================================================
// OPTIONAL ITEMS
// =============================================================================

// Optional holds one field per allowed sub-schema. Nil or empty fields are
// skipped by validation and serialization alike.
type Optional struct {
	Images        []Image
	Subarea       *string
	Neighborhood  *string
	Price         *string
	MapLocation   Attributes
	PONumber      *string
	HousingInfo   Attributes
	BrokerInfo    Attributes
	JobInfo       Attributes
	AutoBasics    Attributes
	Events        Attributes
	ForSale       Attributes
	Generic       Attributes
	HousingBasics Attributes
	HousingTerms  Attributes
	JobBasics     Attributes
	Personals     Attributes

	// Unknown lists input keys that are not allowed sub-schemas. Loaders
	// record them in a stable order: sorted for documents, column order for
	// rows.
	Unknown []string
}

// Image is one picture attached to a posting.
type Image struct {
	// Position is the slot of the image, 0 through 23. Nil means unset.
	Position *int

	// Data is the base64 encoded image payload.
	Data string
}

// Attributes maps a sub-schema's field names to supplied values. Values are
// normally strings; numbers decoded from JSON or YAML are kept as numbers so
// validation can tell "1" from 1.
type Attributes map[string]interface{}

// Text returns the wire form of field and whether it was supplied. A nil
// value counts as not supplied.
func (a Attributes) Text(field string) (string, bool) {
	v, ok := a[field]
	if !ok || v == nil {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Keys returns the supplied field names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Group returns a pointer to the attribute-style sub-schema called name, or
// nil when name is not one. Images and the single-value sub-schemas
// (subarea, neighborhood, price, po_number) are not attribute groups.
func (o *Optional) Group(name string) *Attributes {
	switch name {
	case SubMapLocation:
		return &o.MapLocation
	case SubHousingInfo:
		return &o.HousingInfo
	case SubBrokerInfo:
		return &o.BrokerInfo
	case SubJobInfo:
		return &o.JobInfo
	case SubAutoBasics:
		return &o.AutoBasics
	case SubEvents:
		return &o.Events
	case SubForSale:
		return &o.ForSale
	case SubGeneric:
		return &o.Generic
	case SubHousingBasics:
		return &o.HousingBasics
	case SubHousingTerms:
		return &o.HousingTerms
	case SubJobBasics:
		return &o.JobBasics
	case SubPersonals:
		return &o.Personals
	}
	return nil
}

// Value returns a pointer to the single-value sub-schema called name, or nil
// when name is not one.
func (o *Optional) Value(name string) **string {
	switch name {
	case SubSubarea:
		return &o.Subarea
	case SubNeighborhood:
		return &o.Neighborhood
	case SubPrice:
		return &o.Price
	case SubPONumber:
		return &o.PONumber
	}
	return nil
}
