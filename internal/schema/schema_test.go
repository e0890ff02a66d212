package schema

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	tables := Default()

	assert.True(t, tables.IsCategory("fee"))
	assert.False(t, tables.IsCategory("housing"), "group names are not category codes")
	assert.True(t, tables.IsArea("atl"))
	assert.True(t, tables.IsArea("nyc"))
	assert.False(t, tables.IsArea("zzz"))
	assert.True(t, tables.IsSubarea("atl", "eat"))
	assert.False(t, tables.IsSubarea("nyc", "eat"))
	assert.Empty(t, tables.SubareaCodes("aus"))
	assert.Nil(t, tables.SubareaCodes("zzz"))

	assert.Len(t, tables.Events, 16)
	assert.Len(t, tables.AllowedOptionals, 17)
	assert.True(t, tables.IsOptional("map_location"))
	assert.False(t, tables.IsOptional("mapLocation"))

	assert.Contains(t, tables.AutoBasics["auto_bodytype"], "SUV")
	assert.Contains(t, tables.HousingBasics["bathrooms"], "9+")
	assert.Equal(t, []string{"daily", "weekly", "monthly", "yearly"}, tables.RentPeriods)
	assert.Contains(t, tables.GenericContactMethods, "email only")
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestAutoYears(t *testing.T) {
	years := Default().AutoYears()
	require.Len(t, years, MaxAutoYear-MinAutoYear+1)
	assert.Equal(t, "1900", years[0])
	assert.Equal(t, "2014", years[len(years)-1])
}

func TestCategoryCodesPreserveTableOrder(t *testing.T) {
	fsys := minimalTables()
	fsys["categories.yaml"] = &fstest.MapFile{Data: []byte(`
- group: b
  categories: [{code: zz}, {code: aa}]
- group: a
  categories: [{code: mm}]
`)}

	tables, err := Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"zz", "aa", "mm"}, tables.CategoryCodes())
}

func TestLoadReportsMissingTable(t *testing.T) {
	fsys := minimalTables()
	delete(fsys, "events.yaml")

	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.yaml")
}

func TestLoadReportsMalformedTable(t *testing.T) {
	fsys := minimalTables()
	fsys["areas.yaml"] = &fstest.MapFile{Data: []byte("code: [unterminated")}

	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "areas.yaml")
}

func minimalTables() fstest.MapFS {
	return fstest.MapFS{
		"categories.yaml":              {Data: []byte("- group: g\n  categories: [{code: fee}]\n")},
		"areas.yaml":                   {Data: []byte("- code: atl\n")},
		"auto_basics.yaml":             {Data: []byte("auto_size: [compact]\n")},
		"housing_basics.yaml":          {Data: []byte("bathrooms: [\"1\"]\n")},
		"housing_terms.yaml":           {Data: []byte("rent_period: [monthly]\n")},
		"events.yaml":                  {Data: []byte("events: [event_art]\n")},
		"generic_contact_methods.yaml": {Data: []byte("methods: [email only]\n")},
		"optionals.yaml":               {Data: []byte("allowed: [images]\n")},
	}
}
