package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTables_TheadHeaders(t *testing.T) {
	body := `<html><body><table>
		<thead><tr><th>PLAYER</th><th>PTS</th><th>AST</th></tr></thead>
		<tbody>
			<tr><td>LeBron James</td><td>25.3</td><td>8.1</td></tr>
			<tr><td>Stephen Curry</td><td>26.4</td><td>5.1</td></tr>
		</tbody>
	</table></body></html>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 2)
	assert.Equal(t, "LeBron James", entities[0].Name)
	assert.Equal(t, "25.3", entities[0].Fields["PTS"])
	assert.Equal(t, "Stephen Curry", entities[1].Name)
	assert.Equal(t, "5.1", entities[1].Fields["AST"])
}

func TestParseTables_FirstRowAsHeaders(t *testing.T) {
	// No thead, td-only header row
	body := `<table>
		<tr><td>Name</td><td>REB</td></tr>
		<tr><td>Nikola Jokic</td><td>12.4</td></tr>
	</table>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "Nikola Jokic", entities[0].Name)
	assert.Equal(t, "12.4", entities[0].Fields["REB"])
}

func TestParseTables_RankColumnFallback(t *testing.T) {
	// No PLAYER/Name header; second column carries the name
	body := `<table>
		<tr><th>#</th><th>Athlete</th><th>PTS</th></tr>
		<tr><td>1</td><td>Luka Doncic</td><td>32.4</td></tr>
	</table>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "Luka Doncic", entities[0].Name)
}

func TestParseTables_SkipsNamelessRows(t *testing.T) {
	body := `<table>
		<tr><th>PLAYER</th><th>PTS</th></tr>
		<tr><td></td><td>10.0</td></tr>
		<tr><td>Real Player</td><td>20.0</td></tr>
	</table>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "Real Player", entities[0].Name)
}

func TestParseTables_NestedMarkupInCells(t *testing.T) {
	body := `<table>
		<tr><th>PLAYER</th><th>PTS</th></tr>
		<tr><td><a href="/p/1"><b>LeBron</b> James</a></td><td><span>25.3</span></td></tr>
	</table>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 1)
	assert.Equal(t, "LeBron James", entities[0].Name)
	assert.Equal(t, "25.3", entities[0].Fields["PTS"])
}

func TestParseTables_MultipleTables(t *testing.T) {
	body := `<body>
	<table><tr><th>PLAYER</th><th>PTS</th></tr><tr><td>A One</td><td>1</td></tr></table>
	<table><tr><th>PLAYER</th><th>PTS</th></tr><tr><td>B Two</td><td>2</td></tr></table>
	</body>`

	entities := ParseTables([]byte(body))
	require.Len(t, entities, 2)
	assert.Equal(t, "A One", entities[0].Name)
	assert.Equal(t, "B Two", entities[1].Name)
}

func TestParseTables_EmptyBody(t *testing.T) {
	assert.Empty(t, ParseTables([]byte("")))
	assert.Empty(t, ParseTables([]byte("<p>no tables</p>")))
}
