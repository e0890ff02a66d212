// =============================================================================
// Bulk Poster - Posting Validation
// =============================================================================
//
// Validation checks a posting against the schema tables before it is sent to
// the remote service. It mirrors the rules the remote side enforces so that
// most mistakes are caught locally.
//
// VALIDATION STRATEGY:
//   1. Required items: presence, category, area, reply email
//   2. Optional items: unknown sub-schemas, images, subarea, then each
//      attribute group with its enumerations and "0"/"1" flags
//
// ERROR HANDLING:
//   - Errors are appended to Posting.Errors, never returned or panicked
//   - Validation always runs to completion
//   - Nothing is deduplicated; validating twice reports everything twice
//   - Fields that were not supplied are never checked
//   - Free text, coordinates and prices are never format checked
//
// =============================================================================

package posting

import (
	"fmt"
	"math"

	"github.com/ginjaninja78/cl-bulk-poster/internal/schema"
)

// =============================================================================
// FLAG FIELDS
// =============================================================================
// Attributes restricted to the strings "0" and "1", per sub-schema.

var (
	autoBasicsFlags    = []string{"auto_trans_auto", "auto_trans_manual"}
	genericFlags       = []string{"contact_ok", "contact_phone_ok", "contact_text_ok", "has_license", "phonecalls_ok", "repost_ok", "see_my_other"}
	housingBasicsFlags = []string{"is_furnished", "no_smoking", "private_bath", "private_room", "wheelchaccess"}
	jobBasicsFlags     = []string{"disability_ok", "is_contract", "is_forpay", "is_internship", "is_nonprofit", "is_parttime", "is_telecommuting", "is_volunteer", "recruiters_ok", "remuneration"}
	jobInfoFlags       = []string{"telecommuting", "partTime", "contract", "nonprofit", "internship", "disability", "recruitersOK", "phoneCallsOK", "okToContact", "okToRepost"}

	// autoBasicsEnums lists the enumerated auto_basics fields in check order.
	autoBasicsEnums = []string{"auto_bodytype", "auto_drivetrain", "auto_fuel_type", "auto_paint", "auto_size", "auto_title_status", "auto_transmission"}

	// housingBasicsEnums lists the enumerated housing_basics fields in check order.
	housingBasicsEnums = []string{"bathrooms", "housing_type", "laundry", "parking"}

	flagValues = []string{"0", "1"}
)

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Validate runs the required checks followed by the optional checks.
func (p *Posting) Validate() {
	p.ValidateRequired()
	p.ValidateOptional()
}

// ValidateRequired checks the five required items.
func (p *Posting) ValidateRequired() {
	r := p.Required

	p.checkPresence(MsgRequiredElement, []presence{
		{"title", r.Title != nil},
		{"description", r.Description != nil},
		{"category", r.Category != nil},
		{"area", r.Area != nil},
		{"reply_email", r.ReplyEmail != nil},
	})

	p.validateCategory()
	p.validateArea()
	p.validateReplyEmail()
}

// ValidateOptional checks only the sub-schemas that were supplied.
func (p *Posting) ValidateOptional() {
	p.checkAllowedOptionals()
	p.validateImages()
	p.validateSubarea()
	p.validateJobInfo()
	p.validateAutoBasics()
	p.validateGeneric()
	p.validateHousingBasics()
	p.validateHousingTerms()
	p.validateJobBasics()
	p.validateEvents()
}

// =============================================================================
// REQUIRED ITEMS
// =============================================================================

func (p *Posting) validateCategory() {
	category := p.Required.Category
	if category == nil {
		return
	}
	if !p.Tables().IsCategory(*category) {
		p.addError(AttrError("category", "", *category, mustBeOneOf(p.Tables().CategoryCodes())))
	}
}

func (p *Posting) validateArea() {
	area := p.Required.Area
	if area == nil {
		return
	}
	if !p.Tables().IsArea(*area) {
		p.addError(AttrError("area", "", *area, mustBeOneOf(p.Tables().AreaCodes())))
	}
}

// validateReplyEmail checks the nested reply email record. A missing record
// was already reported by the presence check.
func (p *Posting) validateReplyEmail() {
	email := p.Required.ReplyEmail
	if email == nil {
		return
	}

	p.checkPresence(MsgInvalidEmailAttribute, []presence{
		{"value", email.Value != nil},
		{"privacy", email.Privacy != nil},
		{"outside_contact_ok", email.OutsideContactOK != nil},
	})

	if email.Privacy != nil && !schema.Contains([]string{"A", "C", "P"}, *email.Privacy) {
		p.addError(AttrError("replyEmail", "privacy", *email.Privacy, "Must be one of 'A', 'C', or 'P'"))
	}

	if email.OutsideContactOK != nil && !isNumericFlag(email.OutsideContactOK) {
		p.addError(AttrError("replyEmail", "outside_contact_ok", email.OutsideContactOK, "Must be one of 0 or 1"))
	}
}

// isNumericFlag reports whether v is the number 0 or 1. Strings never
// qualify.
func isNumericFlag(v interface{}) bool {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return false
	}
	return f == math.Trunc(f) && (f == 0 || f == 1)
}

// =============================================================================
// OPTIONAL ITEMS
// =============================================================================

// checkAllowedOptionals reports every unknown sub-schema name.
func (p *Posting) checkAllowedOptionals() {
	for _, name := range p.Optional.Unknown {
		p.addError(GeneralError(MsgUnknownElement, name))
	}
}

// validateImages checks positions. Images without a position are accepted.
func (p *Posting) validateImages() {
	for _, image := range p.Optional.Images {
		if image.Position == nil {
			continue
		}
		pos := *image.Position
		if pos < schema.MinImagePosition || pos > schema.MaxImagePosition {
			p.addError(AttrError("image", "position", pos,
				fmt.Sprintf("Must be between %d and %d", schema.MinImagePosition, schema.MaxImagePosition)))
		}
	}
}

// validateSubarea only applies when the area itself is valid.
func (p *Posting) validateSubarea() {
	subarea := p.Optional.Subarea
	area := p.Required.Area
	if subarea == nil || area == nil || !p.Tables().IsArea(*area) {
		return
	}
	if !p.Tables().IsSubarea(*area, *subarea) {
		p.addError(AttrError("subarea", "", *subarea, mustBeOneOf(p.Tables().SubareaCodes(*area))))
	}
}

func (p *Posting) validateJobInfo() {
	p.checkFlags(SubJobInfo, p.Optional.JobInfo, jobInfoFlags)
}

func (p *Posting) validateAutoBasics() {
	auto := p.Optional.AutoBasics
	if len(auto) == 0 {
		return
	}

	for _, field := range autoBasicsEnums {
		p.checkEnum(SubAutoBasics, auto, field, p.Tables().AutoBasics[field], true)
	}
	// The year set is too long to be a useful hint.
	p.checkEnum(SubAutoBasics, auto, "auto_year", p.Tables().AutoYears(), false)
	p.checkFlags(SubAutoBasics, auto, autoBasicsFlags)
}

func (p *Posting) validateGeneric() {
	generic := p.Optional.Generic
	if len(generic) == 0 {
		return
	}
	p.checkEnum(SubGeneric, generic, "contact_method", p.Tables().GenericContactMethods, true)
	p.checkFlags(SubGeneric, generic, genericFlags)
}

func (p *Posting) validateHousingBasics() {
	housing := p.Optional.HousingBasics
	if len(housing) == 0 {
		return
	}
	for _, field := range housingBasicsEnums {
		p.checkEnum(SubHousingBasics, housing, field, p.Tables().HousingBasics[field], true)
	}
	p.checkFlags(SubHousingBasics, housing, housingBasicsFlags)
}

func (p *Posting) validateHousingTerms() {
	p.checkEnum(SubHousingTerms, p.Optional.HousingTerms, "rent_period", p.Tables().RentPeriods, true)
}

func (p *Posting) validateJobBasics() {
	p.checkFlags(SubJobBasics, p.Optional.JobBasics, jobBasicsFlags)
}

func (p *Posting) validateEvents() {
	p.checkFlags(SubEvents, p.Optional.Events, p.Tables().Events)
}

// =============================================================================
// HELPERS
// =============================================================================

type presence struct {
	key     string
	present bool
}

// checkPresence logs msg once for every key that is not present.
func (p *Posting) checkPresence(msg string, items []presence) {
	for _, item := range items {
		if !item.present {
			p.addError(GeneralError(msg, item.key))
		}
	}
}

// checkEnum reports field when it is supplied with a value outside allowed.
// Non-string values never match. Unsupplied fields are skipped.
func (p *Posting) checkEnum(element string, attrs Attributes, field string, allowed []string, hint bool) {
	v, ok := attrs[field]
	if !ok || v == nil {
		return
	}
	if s, isString := v.(string); isString && schema.Contains(allowed, s) {
		return
	}

	mustBe := ""
	if hint {
		mustBe = mustBeOneOf(allowed)
	}
	p.addError(AttrError(element, field, v, mustBe))
}

// checkFlags reports each supplied field whose value is not "0" or "1".
func (p *Posting) checkFlags(element string, attrs Attributes, fields []string) {
	for _, field := range fields {
		p.checkEnum(element, attrs, field, flagValues, true)
	}
}

func (p *Posting) addError(err Error) {
	p.Errors = append(p.Errors, err)
}
