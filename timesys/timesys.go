// Package timesys converts between UTC and ephemeris time (ET), the TDB seconds past the
// J2000 epoch which index SPK data.
package timesys

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// J2000JD is the Julian date of the J2000 epoch (2000-01-01 12:00:00 TDB).
	J2000JD = 2451545.0
	// SecondsPerDay is the length of a Julian day.
	SecondsPerDay = 86400.0
	// TTMinusTAI is TT − TAI in seconds.
	TTMinusTAI = 32.184
)

// j2000 is 2000-01-01 12:00:00 as a calendar date, without any time scale.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// leapSeconds holds TAI − UTC from each UTC date on.
var leapSeconds = []struct {
	from  time.Time
	delta float64
}{
	{time.Date(1972, 1, 1, 0, 0, 0, 0, time.UTC), 10},
	{time.Date(1972, 7, 1, 0, 0, 0, 0, time.UTC), 11},
	{time.Date(1973, 1, 1, 0, 0, 0, 0, time.UTC), 12},
	{time.Date(1974, 1, 1, 0, 0, 0, 0, time.UTC), 13},
	{time.Date(1975, 1, 1, 0, 0, 0, 0, time.UTC), 14},
	{time.Date(1976, 1, 1, 0, 0, 0, 0, time.UTC), 15},
	{time.Date(1977, 1, 1, 0, 0, 0, 0, time.UTC), 16},
	{time.Date(1978, 1, 1, 0, 0, 0, 0, time.UTC), 17},
	{time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC), 18},
	{time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), 19},
	{time.Date(1981, 7, 1, 0, 0, 0, 0, time.UTC), 20},
	{time.Date(1982, 7, 1, 0, 0, 0, 0, time.UTC), 21},
	{time.Date(1983, 7, 1, 0, 0, 0, 0, time.UTC), 22},
	{time.Date(1985, 7, 1, 0, 0, 0, 0, time.UTC), 23},
	{time.Date(1988, 1, 1, 0, 0, 0, 0, time.UTC), 24},
	{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), 25},
	{time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC), 26},
	{time.Date(1992, 7, 1, 0, 0, 0, 0, time.UTC), 27},
	{time.Date(1993, 7, 1, 0, 0, 0, 0, time.UTC), 28},
	{time.Date(1994, 7, 1, 0, 0, 0, 0, time.UTC), 29},
	{time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC), 30},
	{time.Date(1997, 7, 1, 0, 0, 0, 0, time.UTC), 31},
	{time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), 32},
	{time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), 33},
	{time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC), 34},
	{time.Date(2012, 7, 1, 0, 0, 0, 0, time.UTC), 35},
	{time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), 36},
	{time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), 37},
}

// DeltaAT returns TAI − UTC in seconds at a UTC date. Dates before 1972 use the 1972 value.
func DeltaAT(utc time.Time) float64 {
	i := sort.Search(len(leapSeconds), func(i int) bool { return leapSeconds[i].from.After(utc) })
	if i == 0 {
		return leapSeconds[0].delta
	}
	return leapSeconds[i-1].delta
}

// TDBMinusTT returns the periodic TDB − TT term in seconds at an ET, from the eccentric
// anomaly of the Earth-Moon barycenter orbit.
func TDBMinusTT(et float64) float64 {
	const (
		k  = 1.657e-3
		eb = 1.671e-2
		m0 = 6.239996
		m1 = 1.99096871e-7
	)
	M := m0 + m1*et
	return k * math.Sin(M+eb*math.Sin(M))
}

// ToET converts a time to ET.
func ToET(t time.Time) float64 {
	utc := t.UTC()
	tt := seconds(utc.Sub(j2000)) + DeltaAT(utc) + TTMinusTAI
	return tt + TDBMinusTT(tt)
}

// FromET converts an ET to a UTC time, to the nanosecond.
func FromET(et float64) time.Time {
	tt := et - TDBMinusTT(et)
	guess := j2000.Add(duration(tt - TTMinusTAI - DeltaAT(j2000.Add(duration(tt)))))
	return j2000.Add(duration(tt - TTMinusTAI - DeltaAT(guess)))
}

// ETToJDE returns the Julian ephemeris date (TDB) of an ET.
func ETToJDE(et float64) float64 {
	return J2000JD + et/SecondsPerDay
}

// JDEToET returns the ET of a Julian ephemeris date (TDB).
func JDEToET(jde float64) float64 {
	return (jde - J2000JD) * SecondsPerDay
}

// layouts accepted by Parse. Fractional seconds are always accepted.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse returns the ET of an epoch string, one of:
//
//	ET 123.4                   ephemeris seconds past J2000
//	JD 2451545.0               UTC Julian date
//	JDE 2451545.0              TDB Julian date (also JDTDB)
//	2020-01-01 00:00:00 [UTC]  UTC calendar date (also RFC 3339)
//	2020-01-01 00:00:00 TDB    TDB calendar date
func Parse(s string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty epoch")
	}
	if len(fields) == 2 {
		switch strings.ToUpper(fields[0]) {
		case "ET":
			return parseFloat(s, fields[1])
		case "JD":
			jd, err := parseFloat(s, fields[1])
			if err != nil {
				return 0, err
			}
			return ToET(julian.JDToTime(jd)), nil
		case "JDE", "JDTDB":
			jde, err := parseFloat(s, fields[1])
			if err != nil {
				return 0, err
			}
			return JDEToET(jde), nil
		}
	}
	scale := "UTC"
	if last := strings.ToUpper(fields[len(fields)-1]); last == "UTC" || last == "TDB" {
		scale = last
		fields = fields[:len(fields)-1]
	}
	cal := strings.Join(fields, " ")
	for _, layout := range layouts {
		t, err := time.Parse(layout, cal)
		if err != nil {
			continue
		}
		if scale == "TDB" {
			return seconds(t.Sub(j2000)), nil
		}
		return ToET(t), nil
	}
	return 0, fmt.Errorf("unrecognized epoch %q", s)
}

// JD returns the UTC Julian date of a time.
func JD(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

func parseFloat(s, f string) (float64, error) {
	v, err := strconv.ParseFloat(f, 64)
	if err != nil {
		return 0, fmt.Errorf("epoch %q: %w", s, err)
	}
	return v, nil
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func duration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
