package file

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

var buildingSchema = generators.Schemas()[generators.TableBuilding]

func buildingRows() [][]any {
	ring := []spatial.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	return [][]any{
		{int64(1), "goldenrod", spatial.NewPolygon(ring)},
		{int64(2), "blush", spatial.NewPolygon(ring)},
	}
}

func writeAll(t *testing.T, target *FileTarget) {
	t.Helper()
	require.NoError(t, target.Connect())
	require.NoError(t, target.CreateTableIfNotExists(buildingSchema))
	require.NoError(t, target.InsertBatch("building", buildingSchema.ColumnNames(), buildingRows()))
	require.NoError(t, target.Close())
}

func TestTblOutput(t *testing.T) {
	dir := t.TempDir()
	target := NewFileTarget(Options{Dir: dir})
	writeAll(t, target)

	data, err := os.ReadFile(filepath.Join(dir, "building.tbl"))
	require.NoError(t, err)
	assert.Equal(t,
		"1|goldenrod|POLYGON((0 0,1 0,1 1,0 0))|\n2|blush|POLYGON((0 0,1 0,1 1,0 0))|\n",
		string(data))
}

func TestCSVOutputQuotesGeometry(t *testing.T) {
	dir := t.TempDir()
	target := NewFileTarget(Options{Dir: dir, Format: domain.FormatCSV, Part: 3})
	writeAll(t, target)

	f, err := os.Open(filepath.Join(dir, "building.3.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"b_buildingkey", "b_name", "b_boundary"}, records[0])
	assert.Equal(t, "POLYGON((0 0,1 0,1 1,0 0))", records[1][2])
}

func TestSnappyOutputDecodes(t *testing.T) {
	dir := t.TempDir()
	target := NewFileTarget(Options{Dir: dir, Compress: true})
	writeAll(t, target)

	f, err := os.Open(filepath.Join(dir, "building.tbl.snappy"))
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(snappy.NewReader(f))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2|blush|")
}

func TestStdoutOutput(t *testing.T) {
	var out bytes.Buffer
	target := NewFileTarget(Options{Dir: StdoutDir, Stdout: &out})
	writeAll(t, target)
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestInsertWithoutCreateFails(t *testing.T) {
	target := NewFileTarget(Options{Dir: t.TempDir()})
	require.NoError(t, target.Connect())
	assert.Error(t, target.InsertBatch("building", nil, buildingRows()))
}

func TestRowStringMatchesFileOutput(t *testing.T) {
	row := generators.DriverRow{DriverKey: 1, Name: "Driver#000000001", Address: "a", Region: "AMERICA", Nation: "PERU", Phone: "1"}
	var line bytes.Buffer
	for _, v := range row.Values() {
		line.WriteString(FormatValue(v))
		line.WriteByte('|')
	}
	assert.Equal(t, row.String(), line.String())
}

func TestUnsupportedFormat(t *testing.T) {
	assert.Error(t, NewFileTarget(Options{Dir: t.TempDir(), Format: "xml"}).Connect())
}
