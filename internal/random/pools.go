package random

// WeightedPool is a read-only weighted value list. Pick maps a draw in
// [0, MaxWeight) to the first value whose cumulative weight exceeds it.
type WeightedPool interface {
	Size() int
	Value(i int) string
	MaxWeight() int32
	Pick(draw int32) string
}

// TextSource is a fixed corpus that text generators slice into.
type TextSource interface {
	Size() int
	Text(begin, end int) string
}

// RowStream is implemented by every row generator in this package.
type RowStream interface {
	RowFinished()
	AdvanceRows(rows int64)
}

// FinishRow marks the current row complete on every stream.
func FinishRow(streams ...RowStream) {
	for _, s := range streams {
		s.RowFinished()
	}
}

// AdvanceAll positions every stream at the given row.
func AdvanceAll(rows int64, streams ...RowStream) {
	for _, s := range streams {
		s.AdvanceRows(rows)
	}
}
