package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/schema"
)

func TestEmbeddedSchemaIsValid(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)

	assert.Empty(t, schema.Validate(s))
	assert.Equal(t, "journal.cards.v1", s.SchemaID)
	require.NotNil(t, s.ImageSpec)
	assert.Equal(t, 750, s.ImageSpec.Width)
	assert.Equal(t, 1050, s.ImageSpec.Height)
	assert.Len(t, s.RadarFields(), 8)
}

func TestEmbeddedCardsMatchSchema(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)
	cards, err := Cards()
	require.NoError(t, err)
	require.Len(t, cards, 6)

	seen := map[string]bool{}
	for _, c := range cards {
		assert.Empty(t, card.Validate(s, c.Data), c.ID)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		for _, f := range s.Fields {
			_, ok := c.Data[f.ID]
			assert.True(t, ok, "%s missing %s", c.ID, f.ID)
		}
	}
}
