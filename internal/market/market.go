// Package market
package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownMarket = errors.New("unknown market")

// Market identifies the exchange group a symbol trades on.
type Market string

const (
	CN Market = "cn" // Shanghai / Shenzhen A-shares
	HK Market = "hk"
	US Market = "us"
)

type session struct {
	openH, openM   int
	closeH, closeM int
}

type profile struct {
	zone     string
	sessions []session
}

var profiles = map[Market]profile{
	CN: {zone: "Asia/Shanghai", sessions: []session{{9, 30, 11, 30}, {13, 0, 15, 0}}},
	HK: {zone: "Asia/Hong_Kong", sessions: []session{{9, 30, 12, 0}, {13, 0, 16, 0}}},
	US: {zone: "America/New_York", sessions: []session{{9, 30, 16, 0}}},
}

var aliases = map[string]Market{
	"cn":       CN,
	"a":        CN,
	"ashare":   CN,
	"a-share":  CN,
	"sh":       CN,
	"sz":       CN,
	"hk":       HK,
	"hongkong": HK,
	"hkex":     HK,
	"us":       US,
	"nyse":     US,
	"nasdaq":   US,
}

// Parse resolves a market code or one of its aliases, case-insensitively.
func Parse(s string) (Market, error) {
	if m, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMarket, s)
}

// All returns every supported market.
func All() []Market {
	return []Market{CN, HK, US}
}

func (m Market) String() string { return string(m) }

// Valid reports whether m is a supported market.
func (m Market) Valid() bool {
	_, ok := profiles[m]
	return ok
}

// Location returns the exchange time zone. Unknown markets and hosts
// without tzdata fall back to UTC.
func (m Market) Location() *time.Location {
	p, ok := profiles[m]
	if !ok {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsTradingTime reports whether t falls inside a regular session on a
// weekday, in the market's own time zone. Exchange holidays are not
// considered.
func (m Market) IsTradingTime(t time.Time) bool {
	p, ok := profiles[m]
	if !ok {
		return false
	}
	local := t.In(m.Location())
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	for _, s := range p.sessions {
		if minutes >= s.openH*60+s.openM && minutes < s.closeH*60+s.closeM {
			return true
		}
	}
	return false
}

// UnmarshalText lets config files use any alias accepted by Parse.
func (m *Market) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Market) MarshalText() ([]byte, error) {
	return []byte(m), nil
}
