// Package detector checks a requested experiment configuration against a
// detector's stored hardware limits.
//
// Bounded attributes are declared in a table rather than as conditional
// branches; adding a new limit means adding a table entry. Checks never
// short-circuit: operators need the complete violation set in one pass, so
// the result enumerates every failing constraint in table order.
package detector

import (
	"fmt"

	"beamgate/internal/registry/models"
)

// ConfigurationRequest is the proposed configuration for one validation
// call. Requested values are pointers: a nil value means the axis is not
// part of this request and its bounds are not checked.
type ConfigurationRequest struct {
	Distance        *float64 `json:"distance,omitempty"`
	PixelValueLower *float64 `json:"pixelValueLower,omitempty"`
	PixelValueUpper *float64 `json:"pixelValueUpper,omitempty"`
	RollAngle       *float64 `json:"rollAngle,omitempty"`
	Resolution      *float64 `json:"resolution,omitempty"`
}

// Limit names which side of a bound was broken.
type Limit string

const (
	LimitMin Limit = "min"
	LimitMax Limit = "max"
)

// Violation reports one broken constraint.
type Violation struct {
	Attribute string  `json:"attribute"`
	Limit     Limit   `json:"limit"`
	Requested float64 `json:"requested"`
	Bound     float64 `json:"bound"`
	Message   string  `json:"message"`
}

// Result is the verdict for one configuration request.
type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations,omitempty"`
}

// boundedAttribute ties a requested value to the detector bounds that
// constrain it. A nil bound accessor result means that side is
// unconstrained.
type boundedAttribute struct {
	name      string
	requested func(ConfigurationRequest) *float64
	lower     func(models.Detector) *float64
	upper     func(models.Detector) *float64
}

// Table order defines violation order. The overload entry re-checks the
// requested pixel-value upper bound against the hardware safety ceiling,
// deliberately separate from the trusted-range (data quality) entries.
var boundedAttributes = []boundedAttribute{
	{
		name:      "distance",
		requested: func(r ConfigurationRequest) *float64 { return r.Distance },
		lower:     func(d models.Detector) *float64 { return d.DistanceMin },
		upper:     func(d models.Detector) *float64 { return d.DistanceMax },
	},
	{
		name:      "pixel_value_lower",
		requested: func(r ConfigurationRequest) *float64 { return r.PixelValueLower },
		lower:     func(d models.Detector) *float64 { return d.TrustedPixelValueRangeLower },
		upper:     func(d models.Detector) *float64 { return d.TrustedPixelValueRangeUpper },
	},
	{
		name:      "pixel_value_upper",
		requested: func(r ConfigurationRequest) *float64 { return r.PixelValueUpper },
		lower:     func(d models.Detector) *float64 { return d.TrustedPixelValueRangeLower },
		upper:     func(d models.Detector) *float64 { return d.TrustedPixelValueRangeUpper },
	},
	{
		name:      "overload",
		requested: func(r ConfigurationRequest) *float64 { return r.PixelValueUpper },
		lower:     func(models.Detector) *float64 { return nil },
		upper:     func(d models.Detector) *float64 { return d.Overload },
	},
	{
		name:      "roll",
		requested: func(r ConfigurationRequest) *float64 { return r.RollAngle },
		lower:     func(d models.Detector) *float64 { return d.RollMin },
		upper:     func(d models.Detector) *float64 { return d.RollMax },
	},
	{
		name:      "resolution",
		requested: func(r ConfigurationRequest) *float64 { return r.Resolution },
		lower:     func(d models.Detector) *float64 { return d.ResolutionMin },
		upper:     func(d models.Detector) *float64 { return d.ResolutionMax },
	},
}

// Evaluate checks every bounded attribute of the request against the
// detector's limits. A detector with all bounds nil is vacuously valid on
// every axis. The evaluator is a pure function of its inputs.
func Evaluate(det models.Detector, req ConfigurationRequest) Result {
	var violations []Violation
	for _, attr := range boundedAttributes {
		value := attr.requested(req)
		if value == nil {
			continue
		}
		if lo := attr.lower(det); lo != nil && *value < *lo {
			violations = append(violations, Violation{
				Attribute: attr.name,
				Limit:     LimitMin,
				Requested: *value,
				Bound:     *lo,
				Message:   fmt.Sprintf("%s %g below minimum %g", attr.name, *value, *lo),
			})
		}
		if hi := attr.upper(det); hi != nil && *value > *hi {
			violations = append(violations, Violation{
				Attribute: attr.name,
				Limit:     LimitMax,
				Requested: *value,
				Bound:     *hi,
				Message:   fmt.Sprintf("%s %g above maximum %g", attr.name, *value, *hi),
			})
		}
	}
	return Result{Pass: len(violations) == 0, Violations: violations}
}
