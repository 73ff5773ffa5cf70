package generators

import "math"

// RowCount returns how many rows part (1-based) of parts receives when the
// table holds base*sf rows. The last part takes the remainder.
func RowCount(base, sf float64, part, parts int) int64 {
	return splitCount(int64(base*sf), part, parts)
}

// StartIndex is the zero-based row index of the first row in part.
func StartIndex(base, sf float64, part, parts int) int64 {
	return splitStart(int64(base*sf), part, parts)
}

// LogRowCount is RowCount for tables that grow with log2 of the scale
// factor. Scale factors small enough to make the total negative give an
// empty table.
func LogRowCount(base, sf float64, part, parts int) int64 {
	return splitCount(logTotal(base, sf), part, parts)
}

func LogStartIndex(base, sf float64, part, parts int) int64 {
	return splitStart(logTotal(base, sf), part, parts)
}

func logTotal(base, sf float64) int64 {
	return max(0, int64(base*(1+math.Log2(sf))))
}

func splitCount(total int64, part, parts int) int64 {
	n := total / int64(parts)
	if part == parts {
		n += total % int64(parts)
	}
	return n
}

func splitStart(total int64, part, parts int) int64 {
	return total / int64(parts) * int64(part-1)
}
