package parquet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

var fareSchema = domain.TableSchema{
	Name: "fares",
	Columns: []domain.Column{
		{Name: "f_key", Type: domain.ColumnTypeBigInt},
		{Name: "f_pickup", Type: domain.ColumnTypeTimestamp},
		{Name: "f_fare", Type: domain.ColumnTypeDecimal},
		{Name: "f_loc", Type: domain.ColumnTypeGeometry},
		{Name: "f_note", Type: domain.ColumnTypeText},
	},
}

func readTable(t *testing.T, path string) arrow.Table {
	t.Helper()
	pf, err := pqfile.OpenParquetFile(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { pf.Close() })
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	tbl, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	t.Cleanup(tbl.Release)
	return tbl
}

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	target := NewParquetTarget(Options{Dir: dir, Part: 2})
	require.NoError(t, target.Connect())
	require.NoError(t, target.CreateTableIfNotExists(fareSchema))

	pickup := generators.Timestamp{Day: 92001, Hour: 8, Minute: 30, Second: 5}
	rows := [][]any{
		{int64(1), pickup, generators.Decimal(1234), spatial.NewPoint(spatial.Coord{X: 1.5, Y: -2.25}), "a"},
		{int64(2), pickup, generators.Decimal(5), spatial.NewPoint(spatial.Coord{}), "b"},
	}
	require.NoError(t, target.InsertBatch("fares", fareSchema.ColumnNames(), rows[:1]))
	require.NoError(t, target.InsertBatch("fares", fareSchema.ColumnNames(), rows[1:]))
	require.NoError(t, target.Close())

	path := filepath.Join(dir, "fares.2.parquet")
	tbl := readTable(t, path)
	require.EqualValues(t, 2, tbl.NumRows())
	require.EqualValues(t, 5, tbl.NumCols())

	keys := tbl.Column(0).Data().Chunk(0).(*array.Int64)
	assert.Equal(t, int64(1), keys.Value(0))

	var fares []string
	var locs []string
	for _, chunk := range tbl.Column(2).Data().Chunks() {
		arr := chunk.(*array.Decimal128)
		for i := 0; i < arr.Len(); i++ {
			fares = append(fares, arr.ValueStr(i))
		}
	}
	for _, chunk := range tbl.Column(3).Data().Chunks() {
		arr := chunk.(*array.String)
		for i := 0; i < arr.Len(); i++ {
			locs = append(locs, arr.Value(i))
		}
	}
	assert.Equal(t, []string{"12.34", "0.05"}, fares)
	assert.Equal(t, []string{"POINT(1.5 -2.25)", "POINT(0 0)"}, locs)

	ts := tbl.Column(1).Data().Chunk(0).(*array.Timestamp)
	assert.Equal(t, pickup.Time().UnixMicro(), int64(ts.Value(0)))
}

func TestArrowSchemaTypes(t *testing.T) {
	s := ArrowSchema(fareSchema)
	require.Equal(t, 5, s.NumFields())
	assert.Equal(t, arrow.INT64, s.Field(0).Type.ID())
	assert.Equal(t, arrow.TIMESTAMP, s.Field(1).Type.ID())
	assert.Equal(t, arrow.DECIMAL128, s.Field(2).Type.ID())
	assert.Equal(t, arrow.STRING, s.Field(3).Type.ID())
	v, ok := s.Metadata().GetValue("sbgen.table")
	assert.True(t, ok)
	assert.Equal(t, "fares", v)
}

func TestInsertErrors(t *testing.T) {
	dir := t.TempDir()
	target := NewParquetTarget(Options{Dir: dir})
	require.NoError(t, target.Connect())
	assert.Error(t, target.InsertBatch("fares", nil, [][]any{{int64(1)}}))

	require.NoError(t, target.CreateTableIfNotExists(fareSchema))
	err := target.InsertBatch("fares", nil, [][]any{{"not a key", nil, nil, nil, nil}})
	assert.ErrorContains(t, err, "f_key")
	require.NoError(t, target.Close())
	assert.Equal(t, domain.TargetKindParquet, target.Kind())
	assert.Equal(t, filepath.Join(dir, "fares.parquet"), target.Path("fares"))
}
