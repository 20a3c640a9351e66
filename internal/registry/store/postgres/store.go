// Package postgres implements the registry store against the mirrored ISPyB
// schema. Column and table names follow the upstream schema verbatim, which
// is camelCase (and, for the resolution bounds, shouting). Identifiers are
// quoted so the database does not fold them.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"beamgate/internal/registry/models"
	dErrors "beamgate/pkg/domain-errors"
)

// Store reads registry records from PostgreSQL.
//
// The mirror stores naive timestamps in the facility's local zone, so session
// windows are rebased into the configured site location after scanning.
type Store struct {
	db   *sql.DB
	site *time.Location
}

// New constructs a PostgreSQL-backed registry store. site is the location the
// mirror's naive timestamps are interpreted in.
func New(db *sql.DB, site *time.Location) *Store {
	if site == nil {
		site = time.UTC
	}
	return &Store{db: db, site: site}
}

func (s *Store) FindPerson(ctx context.Context, personID int64) (models.Person, error) {
	const q = `SELECT "personId", "familyName", "givenName", "login", "emailAddress", "phoneNumber"
		FROM "Person" WHERE "personId" = $1`

	var (
		p            models.Person
		email, phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, personID).Scan(
		&p.PersonID, &p.FamilyName, &p.GivenName, &p.Login, &email, &phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Person{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("person %d not found", personID))
	}
	if err != nil {
		return models.Person{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "find person")
	}
	p.Email = nullString(email)
	p.Phone = nullString(phone)
	return p, nil
}

func (s *Store) FindProposal(ctx context.Context, proposalID int64) (models.Proposal, error) {
	const q = `SELECT "proposalId", "personId", "proposalCode", "proposalNumber", "title", "state"
		FROM "Proposal" WHERE "proposalId" = $1`

	var p models.Proposal
	err := s.db.QueryRowContext(ctx, q, proposalID).Scan(
		&p.ProposalID, &p.PersonID, &p.Code, &p.Number, &p.Title, &p.State,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Proposal{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("proposal %d not found", proposalID))
	}
	if err != nil {
		return models.Proposal{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "find proposal")
	}
	return p, nil
}

func (s *Store) FindDetector(ctx context.Context, detectorID int64) (models.Detector, error) {
	const q = `SELECT "detectorId", "detectorType", "detectorManufacturer", "detectorModel",
		"detectorSerialNumber", "detectorPixelSizeHorizontal", "detectorPixelSizeVertical",
		"detectorDistanceMin", "detectorDistanceMax",
		"DETECTORMINRESOLUTION", "DETECTORMAXRESOLUTION",
		"trustedPixelValueRangeLower", "trustedPixelValueRangeUpper", "overload",
		"sensorThickness", "detectorRollMin", "detectorRollMax",
		"numberOfPixelsX", "numberOfPixelsY", "localName"
		FROM "Detector" WHERE "detectorId" = $1`

	var (
		d                                   models.Detector
		pixH, pixV, distMin, distMax        sql.NullFloat64
		resMin, resMax, trustLo, trustHi    sql.NullFloat64
		overload, thickness, rollLo, rollHi sql.NullFloat64
		pixelsX, pixelsY                    sql.NullInt64
		localName                           sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, detectorID).Scan(
		&d.DetectorID, &d.Type, &d.Manufacturer, &d.Model, &d.SerialNumber,
		&pixH, &pixV, &distMin, &distMax, &resMin, &resMax,
		&trustLo, &trustHi, &overload, &thickness, &rollLo, &rollHi,
		&pixelsX, &pixelsY, &localName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Detector{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("detector %d not found", detectorID))
	}
	if err != nil {
		return models.Detector{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "find detector")
	}

	d.PixelSizeHorizontal = nullFloat(pixH)
	d.PixelSizeVertical = nullFloat(pixV)
	d.DistanceMin = nullFloat(distMin)
	d.DistanceMax = nullFloat(distMax)
	d.ResolutionMin = nullFloat(resMin)
	d.ResolutionMax = nullFloat(resMax)
	d.TrustedPixelValueRangeLower = nullFloat(trustLo)
	d.TrustedPixelValueRangeUpper = nullFloat(trustHi)
	d.Overload = nullFloat(overload)
	d.SensorThickness = nullFloat(thickness)
	d.RollMin = nullFloat(rollLo)
	d.RollMax = nullFloat(rollHi)
	d.NumberOfPixelsX = nullInt(pixelsX)
	d.NumberOfPixelsY = nullInt(pixelsY)
	d.LocalName = nullString(localName)
	return d, nil
}

func (s *Store) SessionsForBeamline(ctx context.Context, beamLineName string) ([]models.BLSession, error) {
	const q = `SELECT "sessionId", "proposalId", "beamLineName", "beamLineOperator",
		"startDate", "endDate", "scheduled", "visit_number"
		FROM "BLSession" WHERE "beamLineName" = $1
		ORDER BY "startDate", "visit_number"`

	rows, err := s.db.QueryContext(ctx, q, beamLineName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list sessions for beamline")
	}
	defer rows.Close()

	var sessions []models.BLSession
	for rows.Next() {
		sess, err := s.scanSession(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan session row")
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list sessions for beamline")
	}
	return sessions, nil
}

func (s *Store) FindSessionForVisit(ctx context.Context, visit models.Visit) (models.BLSession, error) {
	const q = `SELECT b."sessionId", b."proposalId", b."beamLineName", b."beamLineOperator",
		b."startDate", b."endDate", b."scheduled", b."visit_number"
		FROM "BLSession" b
		JOIN "Proposal" p ON p."proposalId" = b."proposalId"
		WHERE p."proposalCode" = $1 AND p."proposalNumber" = $2 AND b."visit_number" = $3`

	row := s.db.QueryRowContext(ctx, q, visit.ProposalCode, visit.ProposalNumber, visit.VisitNumber)
	sess, err := s.scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BLSession{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no such visit: %s", visit))
	}
	if err != nil {
		return models.BLSession{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "find session for visit")
	}
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSession(row rowScanner) (models.BLSession, error) {
	var (
		sess      models.BLSession
		operator  sql.NullString
		scheduled sql.NullBool
	)
	err := row.Scan(
		&sess.SessionID, &sess.ProposalID, &sess.BeamLineName, &operator,
		&sess.StartDate, &sess.EndDate, &scheduled, &sess.VisitNumber,
	)
	if err != nil {
		return models.BLSession{}, err
	}
	sess.BeamLineOperator = operator.String
	sess.Scheduled = scheduled.Bool
	sess.StartDate = s.rebase(sess.StartDate)
	sess.EndDate = s.rebase(sess.EndDate)
	return sess, nil
}

// rebase reinterprets a naive timestamp in the site location, keeping the
// wall-clock value. The mirror stores no zone information.
func (s *Store) rebase(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.site)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
