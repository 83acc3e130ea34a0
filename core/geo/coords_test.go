package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTable(t *testing.T) {
	table := Default()
	assert.Equal(t, 58, table.Len())

	c, ok := table.Lookup("Chicago")
	assert.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 41.8781, Lng: -87.6298}, c)

	_, ok = table.Lookup("chicago")
	assert.False(t, ok, "lookup is exact")

	_, ok = table.Lookup("São Paulo")
	assert.True(t, ok)
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Default()
	extended := base.With(map[string]Coordinate{"Reykjavik": {Lat: 64.1466, Lng: -21.9426}})

	_, ok := extended.Lookup("Reykjavik")
	assert.True(t, ok)
	_, ok = base.Lookup("Reykjavik")
	assert.False(t, ok)

	base["Chicago"] = Coordinate{}
	c, _ := Default().Lookup("Chicago")
	assert.NotZero(t, c.Lat, "Default hands out copies")
}
