package shared

import (
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// GEO POINT
// ══════════════════════════════════════════════════════════════════════════════

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// GeoPoint represents a WGS84 coordinate pair, longitude first to match the
// storage layer's geospatial index ordering.
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// IsValid checks coordinate ranges.
func (p GeoPoint) IsValid() bool {
	return p.Longitude >= -180 && p.Longitude <= 180 &&
		p.Latitude >= -90 && p.Latitude <= 90
}

// DistanceKm returns the haversine distance to another point in kilometres,
// rounded to two decimals. The value is for display only; ranking never sorts
// by it unless explicitly requested.
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - p.Latitude) * math.Pi / 180
	dLon := (other.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*100) / 100
}

// ══════════════════════════════════════════════════════════════════════════════
// BUDGET RANGE
// ══════════════════════════════════════════════════════════════════════════════

// BudgetRange is a gig's budget bracket in whole currency units.
type BudgetRange struct {
	Min int
	Max int
}

// IsValid checks that the bracket is non-negative and ordered.
func (b BudgetRange) IsValid() bool {
	return b.Min >= 0 && b.Max >= b.Min
}

// Overlaps reports whether another bracket intersects this one.
func (b BudgetRange) Overlaps(other BudgetRange) bool {
	return b.Min <= other.Max && other.Min <= b.Max
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING
// ══════════════════════════════════════════════════════════════════════════════

// Rating is a running average of 1-5 scores with its sample count.
type Rating struct {
	Average float64
	Count   int
}

// IsValid checks the average range and count sign.
func (r Rating) IsValid() bool {
	return r.Average >= 0 && r.Average <= 5 && r.Count >= 0
}

// Fold returns the rating with one more score folded into the running average.
func (r Rating) Fold(score float64) Rating {
	return Rating{
		Average: (r.Average*float64(r.Count) + score) / float64(r.Count+1),
		Count:   r.Count + 1,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// SkillLevel is an ordinal proficiency tier.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// IsValid checks that the level is one of the known tiers.
func (l SkillLevel) IsValid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	default:
		return false
	}
}

// Ordinal returns the comparable rank of the level; unknown levels rank below
// beginner so they never satisfy a requirement.
func (l SkillLevel) Ordinal() int {
	switch l {
	case SkillBeginner:
		return 1
	case SkillIntermediate:
		return 2
	case SkillAdvanced:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether the level meets a required tier.
func (l SkillLevel) AtLeast(required SkillLevel) bool {
	return l.Ordinal() >= required.Ordinal()
}
