package news

import "time"

// KRXClock reports whether the current local hour falls within the
// 07:00-15:59 window the orchestrator uses to pick its cadence. It does
// not account for weekends or public holidays; an operator wanting that
// should substitute a MarketClock implementation that does.
type KRXClock struct {
	loc *time.Location
}

// NewKRXClock builds a KRXClock in Asia/Seoul, falling back to a fixed
// UTC+9 offset if the tzdata location is unavailable.
func NewKRXClock() *KRXClock {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return &KRXClock{loc: loc}
}

// IsOpen implements MarketClock.
func (c *KRXClock) IsOpen(t time.Time) bool {
	hour := t.In(c.loc).Hour()
	return hour >= 7 && hour < 16
}
