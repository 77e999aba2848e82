package calendar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Clock is a civil time of day.
type Clock struct {
	Hour   int
	Minute int
}

// Common clock values.
var (
	Midnight = Clock{}
	Noon     = Clock{Hour: 12}
)

// ParseClock accepts "15:04" and "03:04 PM" forms.
func ParseClock(s string) (Clock, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	pm, am := strings.HasSuffix(raw, "PM"), strings.HasSuffix(raw, "AM")
	if pm || am {
		raw = strings.TrimSpace(raw[:len(raw)-2])
	}

	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return Clock{}, domain.ErrInvalidClock.Detail("%q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return Clock{}, domain.ErrInvalidClock.Detail("%q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return Clock{}, domain.ErrInvalidClock.Detail("%q", s)
	}

	if pm || am {
		if h < 1 || h > 12 {
			return Clock{}, domain.ErrInvalidClock.Detail("%q", s)
		}
		h %= 12
		if pm {
			h += 12
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, domain.ErrInvalidClock.Detail("%q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
