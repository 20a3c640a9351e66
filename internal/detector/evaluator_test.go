package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beamgate/internal/registry/models"
)

func f(v float64) *float64 { return &v }

func TestDistanceWithinBounds(t *testing.T) {
	det := models.Detector{DetectorID: 58, DistanceMin: f(200), DistanceMax: f(1500)}

	res := Evaluate(det, ConfigurationRequest{Distance: f(1200)})
	require.True(t, res.Pass)
	assert.Empty(t, res.Violations)
}

func TestDistanceAboveMax(t *testing.T) {
	det := models.Detector{DetectorID: 58, DistanceMin: f(200), DistanceMax: f(1500)}

	res := Evaluate(det, ConfigurationRequest{Distance: f(1600)})
	require.False(t, res.Pass)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "distance", res.Violations[0].Attribute)
	assert.Equal(t, LimitMax, res.Violations[0].Limit)
	assert.Equal(t, 1500.0, res.Violations[0].Bound)
}

func TestDistanceBelowMin(t *testing.T) {
	det := models.Detector{DistanceMin: f(200), DistanceMax: f(1500)}

	res := Evaluate(det, ConfigurationRequest{Distance: f(150)})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, LimitMin, res.Violations[0].Limit)
}

func TestNilBoundsAreVacuouslyValid(t *testing.T) {
	// Detector 94 in the mirror has no overload and no trusted upper bound.
	det := models.Detector{DetectorID: 94}

	res := Evaluate(det, ConfigurationRequest{
		Distance:        f(99999),
		PixelValueUpper: f(1e12),
		RollAngle:       f(720),
		Resolution:      f(0.1),
	})
	require.True(t, res.Pass, "all-nil bounds must not constrain any axis")
}

func TestNilRequestedValueSkipsAxis(t *testing.T) {
	det := models.Detector{DistanceMin: f(200), DistanceMax: f(1500), RollMin: f(-10), RollMax: f(10)}

	res := Evaluate(det, ConfigurationRequest{})
	require.True(t, res.Pass)
}

func TestOverloadReportedSeparatelyFromTrustedRange(t *testing.T) {
	det := models.Detector{
		TrustedPixelValueRangeLower: f(0),
		TrustedPixelValueRangeUpper: f(100000),
		Overload:                    f(120000),
	}

	// Above both the trusted range and the overload ceiling: two distinct
	// violations on the same requested value.
	res := Evaluate(det, ConfigurationRequest{PixelValueUpper: f(150000)})
	require.Len(t, res.Violations, 2)
	assert.Equal(t, "pixel_value_upper", res.Violations[0].Attribute)
	assert.Equal(t, "overload", res.Violations[1].Attribute)

	// Between trusted upper and overload: data-quality violation only.
	res = Evaluate(det, ConfigurationRequest{PixelValueUpper: f(110000)})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "pixel_value_upper", res.Violations[0].Attribute)
}

func TestPixelValueLowerOutsideTrustedRange(t *testing.T) {
	det := models.Detector{
		TrustedPixelValueRangeLower: f(10),
		TrustedPixelValueRangeUpper: f(100000),
	}

	res := Evaluate(det, ConfigurationRequest{PixelValueLower: f(-5)})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "pixel_value_lower", res.Violations[0].Attribute)
	assert.Equal(t, LimitMin, res.Violations[0].Limit)
}

func TestZeroBoundIsAConstraint(t *testing.T) {
	// A zero bound must behave as a real constraint, not as "unset".
	det := models.Detector{RollMin: f(0)}

	res := Evaluate(det, ConfigurationRequest{RollAngle: f(-1)})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "roll", res.Violations[0].Attribute)
}

func TestViolationsAreExhaustiveAndOrdered(t *testing.T) {
	det := models.Detector{
		DistanceMin: f(200), DistanceMax: f(1500),
		RollMin: f(-5), RollMax: f(5),
		ResolutionMin: f(1), ResolutionMax: f(50),
	}

	res := Evaluate(det, ConfigurationRequest{
		Distance:   f(1600),
		RollAngle:  f(20),
		Resolution: f(0.5),
	})
	require.Len(t, res.Violations, 3, "every failing constraint must be reported")

	var attrs []string
	for _, v := range res.Violations {
		attrs = append(attrs, v.Attribute)
	}
	assert.Equal(t, []string{"distance", "roll", "resolution"}, attrs, "violation order is table order")
}

func TestEvaluateIsDeterministic(t *testing.T) {
	det := models.Detector{DistanceMin: f(200), DistanceMax: f(1500), RollMax: f(5)}
	req := ConfigurationRequest{Distance: f(100), RollAngle: f(10)}

	first := Evaluate(det, req)
	second := Evaluate(det, req)
	assert.Equal(t, first, second)
}
