package calendar

import (
	"strings"
	"time"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Weekday is a time.Weekday that reads and writes lower-case day names.
type Weekday time.Weekday

// Std returns the underlying time.Weekday.
func (w Weekday) Std() time.Weekday { return time.Weekday(w) }

func (w Weekday) String() string { return strings.ToLower(time.Weekday(w).String()) }

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || name == full[:3] {
			return Weekday(wd), nil
		}
	}
	return 0, domain.ErrInvalidDate.Detail("unknown weekday %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
