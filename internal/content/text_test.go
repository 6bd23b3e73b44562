package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFreeText_Blocks(t *testing.T) {
	body := "LeBron James\nPTS: 25.3\nAST: 8.1\n\nStephen Curry\nPTS: 26.4\nAST: 5.1"

	entities := ParseFreeText([]byte(body))
	require.Len(t, entities, 2)
	assert.Equal(t, "LeBron James", entities[0].Name)
	assert.Equal(t, "25.3", entities[0].Fields["PTS"])
	assert.Equal(t, "Stephen Curry", entities[1].Name)
}

func TestParseFreeText_NameKey(t *testing.T) {
	body := "Name: Nikola Jokic\nREB: 12.4\nAST: 9.0"

	entities := ParseFreeText([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "Nikola Jokic", entities[0].Name)
	assert.NotContains(t, entities[0].Fields, "Name")
}

func TestParseFreeText_PlayerKey(t *testing.T) {
	body := "player: Luka Doncic\nPTS: 32.4"

	entities := ParseFreeText([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "Luka Doncic", entities[0].Name)
}

func TestParseFreeText_SkipsIncompleteBlocks(t *testing.T) {
	// A bare name with no fields, and fields with no name, both drop out
	body := "Just A Name\n\nPTS: 10.0\nAST: 2.0"

	entities := ParseFreeText([]byte(body))
	assert.Empty(t, entities)
}

func TestParseFreeText_Empty(t *testing.T) {
	assert.Empty(t, ParseFreeText([]byte("")))
	assert.Empty(t, ParseFreeText([]byte("\n\n\n")))
}
