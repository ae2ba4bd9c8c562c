package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPoint_IsValid(t *testing.T) {
	assert.True(t, GeoPoint{Longitude: 76.95, Latitude: 43.25}.IsValid())
	assert.True(t, GeoPoint{Longitude: -180, Latitude: 90}.IsValid())
	assert.False(t, GeoPoint{Longitude: 181, Latitude: 0}.IsValid())
	assert.False(t, GeoPoint{Longitude: 0, Latitude: -91}.IsValid())
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	almaty := GeoPoint{Longitude: 76.8897, Latitude: 43.2389}
	astana := GeoPoint{Longitude: 71.4306, Latitude: 51.1282}

	dist := almaty.DistanceKm(astana)
	assert.InDelta(t, 970, dist, 15)

	// Symmetric and zero at the same point.
	assert.Equal(t, dist, astana.DistanceKm(almaty))
	assert.Equal(t, 0.0, almaty.DistanceKm(almaty))
}

func TestBudgetRange(t *testing.T) {
	assert.True(t, BudgetRange{Min: 100, Max: 200}.IsValid())
	assert.True(t, BudgetRange{Min: 0, Max: 0}.IsValid())
	assert.False(t, BudgetRange{Min: 200, Max: 100}.IsValid())
	assert.False(t, BudgetRange{Min: -1, Max: 100}.IsValid())

	a := BudgetRange{Min: 100, Max: 300}
	assert.True(t, a.Overlaps(BudgetRange{Min: 250, Max: 500}))
	assert.True(t, a.Overlaps(BudgetRange{Min: 300, Max: 400}))
	assert.False(t, a.Overlaps(BudgetRange{Min: 301, Max: 400}))
}

func TestRating_Fold(t *testing.T) {
	r := Rating{}

	r = r.Fold(5)
	assert.InDelta(t, 5.0, r.Average, 0.001)
	assert.Equal(t, 1, r.Count)

	r = r.Fold(3)
	assert.InDelta(t, 4.0, r.Average, 0.001)

	r = r.Fold(4)
	assert.InDelta(t, 4.0, r.Average, 0.001)
	assert.Equal(t, 3, r.Count)
}

func TestSkillLevel_Ordering(t *testing.T) {
	assert.True(t, SkillAdvanced.AtLeast(SkillBeginner))
	assert.True(t, SkillIntermediate.AtLeast(SkillIntermediate))
	assert.False(t, SkillBeginner.AtLeast(SkillAdvanced))

	// Unknown levels never satisfy a requirement.
	assert.False(t, SkillLevel("expert").AtLeast(SkillBeginner))
	assert.False(t, SkillLevel("expert").IsValid())
}
