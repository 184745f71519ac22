package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Config
		ok   bool
	}{
		{"findByName", Config{Segments: []string{"Name"}}, true},
		{"FindByName", Config{Segments: []string{"Name"}}, true},
		{"findByNameBang", Config{Bang: true, Segments: []string{"Name"}}, true},
		{"findByName!", Config{Bang: true, Segments: []string{"Name"}}, true},
		{"findAllByActive", Config{All: true, Segments: []string{"Active"}}, true},
		{"findByNameAndCode", Config{Segments: []string{"Name", "Code"}}, true},
		{"findByLandArea", Config{Segments: []string{"LandArea"}}, true},
		{"findByBrandAndIsoCode", Config{Segments: []string{"Brand", "IsoCode"}}, true},
		{"find_by_name", Config{Segments: []string{"name"}}, true},
		{"find_by_first_name_and_code!", Config{Bang: true, Segments: []string{"first_name", "code"}}, true},
		{"find_all_by_active", Config{All: true, Segments: []string{"active"}}, true},

		{"findAllByActiveBang", Config{All: true, Segments: []string{"ActiveBang"}}, true},
		{"find_all_by_active!", Config{}, false},
		{"findBy", Config{}, false},
		{"findByNameAnd", Config{Segments: []string{"NameAnd"}}, true},
		{"find_by_", Config{}, false},
		{"find_by_name_and_", Config{}, false},
		{"findName", Config{}, false},
		{"where", Config{}, false},
		{"", Config{}, false},
		{"Bang", Config{}, false},
		{"findByBang", Config{Segments: []string{"Bang"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.name)
			require.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, Config{}, got)
				return
			}
			tt.want.Name = tt.name
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadingsOfTrailingBang(t *testing.T) {
	got := Readings("findByBigBang")
	assert.Equal(t, []Config{
		{Name: "findByBigBang", Bang: true, Segments: []string{"Big"}},
		{Name: "findByBigBang", Segments: []string{"BigBang"}},
	}, got)

	assert.Len(t, Readings("findByName!"), 1)
	assert.Len(t, Readings("find_by_big_bang"), 1)
	assert.Empty(t, Readings("where"))

	p := NewParser(4)
	assert.Equal(t, got, p.Readings("findByBigBang"))
}

func TestParserCachesHitsAndMisses(t *testing.T) {
	p := NewParser(2)

	cfg, ok := p.Parse("findByName")
	require.True(t, ok)
	assert.Equal(t, []string{"Name"}, cfg.Segments)

	_, ok = p.Parse("bogus")
	assert.False(t, ok)
	assert.Equal(t, 2, p.Len())

	// mutating a returned config does not leak into the cache
	cfg.Segments[0] = "Changed"
	again, ok := p.Parse("findByName")
	require.True(t, ok)
	assert.Equal(t, []string{"Name"}, again.Segments)

	p.Parse("findByCode")
	assert.Equal(t, 2, p.Len())
}

func TestNewParserDefaultSize(t *testing.T) {
	p := NewParser(0)
	_, ok := p.Parse("findById")
	assert.True(t, ok)
}
