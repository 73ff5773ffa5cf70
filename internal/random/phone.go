package random

import "fmt"

const (
	phoneSeedsPerRow = 3
	nationsMax       = 90
)

// PhoneNumber formats CC-AAA-EEE-NNNN where the country code is derived
// from the nation key.
type PhoneNumber struct {
	r *RowRandomInt
}

func NewPhoneNumber(seed int64) *PhoneNumber {
	return &PhoneNumber{r: NewRowRandomInt(seed, phoneSeedsPerRow)}
}

func (p *PhoneNumber) NextValue(nationKey int64) string {
	return fmt.Sprintf("%02d-%03d-%03d-%04d",
		10+nationKey%nationsMax,
		p.r.NextInt(100, 999),
		p.r.NextInt(100, 999),
		p.r.NextInt(1000, 9999))
}

func (p *PhoneNumber) RowFinished() { p.r.RowFinished() }

func (p *PhoneNumber) AdvanceRows(rows int64) { p.r.AdvanceRows(rows) }
