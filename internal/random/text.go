package random

import "fmt"

const textSeedsPerRow = 2

// Text slices a random window out of a shared corpus. The window length is
// uniform in [0.4*avg, 1.6*avg].
type Text struct {
	source               TextSource
	minLength, maxLength int32
	r                    *RowRandomInt
}

func NewText(seed int64, source TextSource, averageLength float64) *Text {
	t := &Text{
		source:    source,
		minLength: int32(averageLength * lowLengthMultiplier),
		maxLength: int32(averageLength * highLengthMultiplier),
		r:         NewRowRandomInt(seed, textSeedsPerRow),
	}
	if int(t.maxLength) > source.Size() {
		panic(fmt.Sprintf("random: text pool of %d bytes cannot hold %d byte fragments", source.Size(), t.maxLength))
	}
	return t
}

func (t *Text) NextValue() string {
	offset := t.r.NextInt(0, int32(t.source.Size())-t.maxLength)
	length := t.r.NextInt(t.minLength, t.maxLength)
	return t.source.Text(int(offset), int(offset+length))
}

func (t *Text) RowFinished() { t.r.RowFinished() }

func (t *Text) AdvanceRows(rows int64) { t.r.AdvanceRows(rows) }
