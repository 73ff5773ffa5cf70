package random

const timeOfDaySeedsPerRow = 3

// TimeOfDay is an hour, minute and second drawn independently.
type TimeOfDay struct {
	Hour, Minute, Second int32
}

func (t TimeOfDay) Seconds() int32 {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

type RandomTimeOfDay struct {
	r *RowRandomInt
}

func NewRandomTimeOfDay(seed int64) *RandomTimeOfDay {
	return &RandomTimeOfDay{r: NewRowRandomInt(seed, timeOfDaySeedsPerRow)}
}

func (t *RandomTimeOfDay) NextValue() TimeOfDay {
	return TimeOfDay{
		Hour:   t.r.NextInt(0, 23),
		Minute: t.r.NextInt(0, 59),
		Second: t.r.NextInt(0, 59),
	}
}

func (t *RandomTimeOfDay) RowFinished() { t.r.RowFinished() }

func (t *RandomTimeOfDay) AdvanceRows(rows int64) { t.r.AdvanceRows(rows) }
