// Package models holds the mirrored facility registry records. All four
// record types are created and updated by external systems; this service
// only ever reads them, so none of the types carry mutation methods.
package models

import "time"

// ProposalState is the lifecycle state of a research proposal. The state
// gates whether any of the proposal's sessions can be considered active.
type ProposalState string

const (
	ProposalStateOpen   ProposalState = "Open"
	ProposalStateClosed ProposalState = "Closed"
)

// Person is an identity record, referenced (never owned) by proposals.
// Immutable once created by external registration.
type Person struct {
	PersonID   int64   `json:"personId"`
	FamilyName string  `json:"familyName"`
	GivenName  string  `json:"givenName"`
	Login      string  `json:"login"`
	Email      *string `json:"emailAddress,omitempty"`
	Phone      *string `json:"phoneNumber,omitempty"`
}

// Proposal is an approved unit of research authorizing one or more sessions.
type Proposal struct {
	ProposalID int64         `json:"proposalId"`
	PersonID   int64         `json:"personId"`
	Code       string        `json:"proposalCode"`
	Number     int64         `json:"proposalNumber"`
	Title      string        `json:"title"`
	State      ProposalState `json:"state"`
}

// IsAuthorized reports whether the proposal state is in the given authorized
// set. An empty set authorizes nothing, never everything.
func (p Proposal) IsAuthorized(states map[ProposalState]struct{}) bool {
	_, ok := states[p.State]
	return ok
}

// BLSession is a scheduled time window granting access to one beamline on
// behalf of one proposal.
//
// Invariants:
//   - StartDate <= EndDate
//   - the session is "active" purely as a function of a wall-clock instant
//     falling in [StartDate, EndDate]; there is no explicit close step
//   - sessions are never mutated by this service
//
// The registry does not prevent overlapping windows on one beamline; the
// resolver's tie-break policy deals with overlap on the read side.
type BLSession struct {
	SessionID        int64     `json:"sessionId"`
	ProposalID       int64     `json:"proposalId"`
	BeamLineName     string    `json:"beamLineName"`
	BeamLineOperator string    `json:"beamLineOperator"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	Scheduled        bool      `json:"scheduled"`
	VisitNumber      int32     `json:"visit_number"`
}

// Contains reports whether asOf lies inside the session window, inclusive on
// both ends.
func (s BLSession) Contains(asOf time.Time) bool {
	return !asOf.Before(s.StartDate) && !asOf.After(s.EndDate)
}

// Detector is a hardware profile with operating limits. Each bound is
// independently nullable: a nil bound means "no constraint on this axis",
// which is distinct from a bound of zero.
type Detector struct {
	DetectorID   int64  `json:"detectorId"`
	Type         string `json:"detectorType"`
	Manufacturer string `json:"detectorManufacturer"`
	Model        string `json:"detectorModel"`
	SerialNumber string `json:"detectorSerialNumber"`

	PixelSizeHorizontal *float64 `json:"detectorPixelSizeHorizontal,omitempty"`
	PixelSizeVertical   *float64 `json:"detectorPixelSizeVertical,omitempty"`

	DistanceMin *float64 `json:"detectorDistanceMin,omitempty"`
	DistanceMax *float64 `json:"detectorDistanceMax,omitempty"`

	ResolutionMin *float64 `json:"detectorMinResolution,omitempty"`
	ResolutionMax *float64 `json:"detectorMaxResolution,omitempty"`

	// TrustedPixelValueRange bounds the data-quality-valid range of raw
	// sensor readings. Overload is the hardware safety ceiling and is
	// checked separately from the trusted range.
	TrustedPixelValueRangeLower *float64 `json:"trustedPixelValueRangeLower,omitempty"`
	TrustedPixelValueRangeUpper *float64 `json:"trustedPixelValueRangeUpper,omitempty"`
	Overload                    *float64 `json:"overload,omitempty"`

	SensorThickness *float64 `json:"sensorThickness,omitempty"`

	RollMin *float64 `json:"detectorRollMin,omitempty"`
	RollMax *float64 `json:"detectorRollMax,omitempty"`

	NumberOfPixelsX *int64 `json:"numberOfPixelsX,omitempty"`
	NumberOfPixelsY *int64 `json:"numberOfPixelsY,omitempty"`

	LocalName *string `json:"localName,omitempty"`
}
