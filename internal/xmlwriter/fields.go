package xmlwriter

import "github.com/ginjaninja78/cl-bulk-poster/internal/posting"

// =============================================================================
// ATTRIBUTE LISTS
// =============================================================================
// Each attribute-style element carries a fixed, ordered list of attributes.
// A field maps an input key to the attribute name used on the wire. Keys
// outside the list are never written.

type field struct {
	key  string
	wire string
}

// same builds fields whose input key and wire name are identical.
func same(names ...string) []field {
	fields := make([]field, len(names))
	for i, n := range names {
		fields[i] = field{key: n, wire: n}
	}
	return fields
}

// attrElement pairs an optional sub-schema with its cl: element.
type attrElement struct {
	group   string
	element string
	fields  []field
}

// attrElements is in document order. Images and the single-value elements
// are written separately, ahead of and between these.
var (
	mapLocationElement = attrElement{posting.SubMapLocation, "mapLocation", []field{
		{"city", "city"},
		{"state", "state"},
		{"postal", "postal"},
		{"cross_street1", "crossStreet1"},
		{"cross_street2", "crossStreet2"},
		{"latitude", "latitude"},
		{"longitude", "longitude"},
	}}

	attrElements = []attrElement{
		{posting.SubHousingInfo, "housingInfo", []field{
			{"price", "price"},
			{"bedrooms", "bedrooms"},
			{"sqft", "sqft"},
			{"cats_ok", "catsOK"},
			{"dogs_ok", "dogsOK"},
		}},
		{posting.SubBrokerInfo, "brokerInfo", []field{
			{"company_name", "companyName"},
			{"fee_disclosure", "feeDisclosure"},
		}},
		// jobInfo keys are already in wire casing; validation checks the
		// same names.
		{posting.SubJobInfo, "jobInfo", same(
			"compensation", "telecommuting", "partTime", "contract", "nonprofit",
			"internship", "disability", "recruitersOK", "phoneCallsOK",
			"okToContact", "okToRepost",
		)},
		{posting.SubAutoBasics, "auto_basics", same(
			"auto_bodytype", "auto_drivetrain", "auto_fuel_type", "auto_make_model",
			"auto_miles", "auto_paint", "auto_size", "auto_title_status",
			"auto_trans_auto", "auto_trans_manual", "auto_transmission", "auto_vin",
			"auto_year",
		)},
		{posting.SubEvents, "events", same(
			"event_art", "event_athletics", "event_career", "event_dance",
			"event_festival", "event_fitness_wellness", "event_food", "event_free",
			"event_fundraiser_vol", "event_geek", "event_kidfriendly",
			"event_literary", "event_music", "event_outdoor", "event_sale",
			"event_singles",
		)},
		{posting.SubForSale, "forsale", same(
			"sale_condition", "sale_date_1", "sale_date_2", "sale_date_3",
			"sale_size", "sale_time",
		)},
		{posting.SubGeneric, "generic", same(
			"contact_method", "contact_name", "contact_ok", "contact_phone",
			"contact_phone_ok", "contact_text_ok", "fee_disclosure", "has_license",
			"license_info", "phonecalls_ok", "repost_ok", "see_my_other",
		)},
		{posting.SubHousingBasics, "housing_basics", same(
			"bathrooms", "housing_type", "is_furnished", "laundry", "movein_date",
			"no_smoking", "parking", "private_bath", "private_room", "wheelchaccess",
		)},
		{posting.SubHousingTerms, "housing_terms", same("rent_period")},
		{posting.SubJobBasics, "job_basics", same(
			"company_name", "disability_ok", "is_contract", "is_forpay",
			"is_internship", "is_nonprofit", "is_parttime", "is_telecommuting",
			"is_volunteer", "recruiters_ok", "remuneration",
		)},
		{posting.SubPersonals, "personals", same(
			"pers_body_art_is", "pers_body_type_is", "pers_diet_is",
			"pers_dislikes_is", "pers_drinking_is", "pers_drugs_is",
			"pers_education_is", "pers_ethnicity_is", "pers_eyes_is",
			"pers_facial_hair_is", "pers_fears_is",
			"pers_freeform_answer_0_is", "pers_freeform_answer_1_is",
			"pers_freeform_answer_2_is", "pers_freeform_answer_3_is",
			"pers_freeform_answer_4_is", "pers_freeform_answer_5_is",
			"pers_freeform_answer_6_is", "pers_freeform_answer_7_is",
			"pers_freeform_question_0_is", "pers_freeform_question_1_is",
			"pers_freeform_question_2_is", "pers_freeform_question_3_is",
			"pers_freeform_question_4_is", "pers_freeform_question_5_is",
			"pers_freeform_question_6_is", "pers_freeform_question_7_is",
			"pers_hair_is", "pers_height_is", "pers_interests_is",
			"pers_kids_has_is", "pers_kids_want_is", "pers_lang_native_is",
			"pers_likes_is", "pers_occupation_is", "pers_personality_is",
			"pers_pets_is", "pers_politics_is", "pers_relationship_status_is",
			"pers_religion_is", "pers_resembles_is", "pers_smoking_is",
			"pers_std_status_is", "pers_weight_is", "pers_zodiac_is",
		)},
	}
)
