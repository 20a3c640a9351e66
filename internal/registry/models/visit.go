package models

import (
	"fmt"
	"regexp"
	"strconv"

	dErrors "beamgate/pkg/domain-errors"
)

// Visit identifies one beamline session by the facility's human-readable
// visit code, e.g. "mx24447-95": proposal code, proposal number, and the
// visit number within that proposal.
type Visit struct {
	ProposalCode   string
	ProposalNumber int64
	VisitNumber    int32
}

var reVisit = regexp.MustCompile(`^([^\d]+)([^-]+)-(\d+)$`)

// ParseVisit splits a visit code into its proposal code, proposal number and
// visit number parts.
func ParseVisit(code string) (Visit, error) {
	m := reVisit.FindStringSubmatch(code)
	if m == nil {
		return Visit{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("could not decode visit code %q", code))
	}
	proposal, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Visit{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("could not decode visit code %q", code))
	}
	visit, err := strconv.ParseInt(m[3], 10, 32)
	if err != nil {
		return Visit{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("could not decode visit code %q", code))
	}
	return Visit{ProposalCode: m[1], ProposalNumber: proposal, VisitNumber: int32(visit)}, nil
}

func (v Visit) String() string {
	return fmt.Sprintf("%s%d-%d", v.ProposalCode, v.ProposalNumber, v.VisitNumber)
}

// VisitCode formats the visit code for a session under its owning proposal.
func VisitCode(p Proposal, s BLSession) string {
	return Visit{ProposalCode: p.Code, ProposalNumber: p.Number, VisitNumber: s.VisitNumber}.String()
}
