package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCountryCode is returned by ParseCountryCode.
var ErrInvalidCountryCode = errors.New("invalid country code")

// CountryCode is an upper-case ISO 3166 code (alpha-2, alpha-3 tolerated).
type CountryCode string

// ParseCountryCode trims and upper-cases s and checks that it is 2 or 3 ASCII letters.
func ParseCountryCode(s string) (CountryCode, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) < 2 || len(c) > 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCountryCode, s)
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCountryCode, s)
		}
	}
	return CountryCode(c), nil
}

func (c CountryCode) String() string { return string(c) }

// CountryStat is a country's share of plays. Rank is only set on aggregate lists.
type CountryStat struct {
	Rank  int    `json:"rank,omitempty"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Plays int64  `json:"plays"`
}

// CityStat is a city's share of plays. Rank is only set on aggregate lists.
type CityStat struct {
	Rank        int    `json:"rank,omitempty"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Plays       int64  `json:"plays"`
}

// CountryTrack is one track's contribution to a country.
type CountryTrack struct {
	Title string `json:"title"`
	URN   string `json:"urn"`
	Plays int64  `json:"plays"`
}

// CountryTracks is one entry of the country index.
type CountryTracks struct {
	Name       string         `json:"name"`
	Code       string         `json:"code"`
	TotalPlays int64          `json:"total_plays"`
	Tracks     []CountryTrack `json:"tracks"`
}

// CountryIndex maps a country code to the tracks played there.
// Serialized with keys in ascending code order (encoding sorts map keys).
type CountryIndex map[CountryCode]CountryTracks

// Lookup finds an entry by code, case-insensitively.
func (idx CountryIndex) Lookup(code string) (CountryTracks, bool) {
	c, err := ParseCountryCode(code)
	if err != nil {
		return CountryTracks{}, false
	}
	e, ok := idx[c]
	return e, ok
}

// Codes returns the index keys in ascending order.
func (idx CountryIndex) Codes() []CountryCode {
	codes := make([]CountryCode, 0, len(idx))
	for c := range idx {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
