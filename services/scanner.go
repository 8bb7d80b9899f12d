package services

import (
	"context"
	"time"

	"salonpro-notifier/models"
	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// coarseMargin widens the database range so every UTC offset (-12h..+14h)
// is covered without doing timezone math in SQL.
const coarseMargin = 26 * time.Hour

// DueCandidate is an appointment selected for a routine, with the send time
// computed in the recipient's zone.
type DueCandidate struct {
	Appointment models.Appointment
	SendTime    time.Time
	Location    *time.Location
	// Readmitted is set when a mark existed but went stale.
	Readmitted bool
}

// DueScanner finds appointments whose reminder is due.
type DueScanner struct {
	db              *gorm.DB
	defaultTimezone string
	now             func() time.Time
}

func NewDueScanner(db *gorm.DB, defaultTimezone string, now func() time.Time) *DueScanner {
	return &DueScanner{db: db, defaultTimezone: defaultTimezone, now: now}
}

// IsDue evaluates one appointment. start is the zone-less wall clock of the
// appointment, read in loc. The send time is due when it lies in
// [now, now+window], both ends inclusive.
func IsDue(start time.Time, hoursBefore int, now time.Time, window time.Duration, loc *time.Location) (bool, time.Time) {
	sendTime := utils.WallClockIn(start, loc).Add(-time.Duration(hoursBefore) * time.Hour)
	nowLocal := now.In(loc)
	due := !sendTime.Before(nowLocal) && !sendTime.After(nowLocal.Add(window))
	return due, sendTime
}

// Location resolves the recipient zone: customer, then application default, then UTC.
func (s *DueScanner) Location(c models.Customer) *time.Location {
	return utils.LoadLocation(c.Timezone, s.defaultTimezone)
}

// FindDue returns the appointments due for routine within window.
func (s *DueScanner) FindDue(ctx context.Context, routine models.Routine, window time.Duration) ([]DueCandidate, error) {
	now := s.now()
	offset := time.Duration(routine.HoursBefore) * time.Hour
	nowWall := utils.NaiveUTC(now.UTC())
	from := nowWall.Add(offset - coarseMargin)
	to := nowWall.Add(offset + window + coarseMargin)

	var appts []models.Appointment
	err := s.candidates(ctx, routine).
		Where("start_datetime BETWEEN ? AND ?", from, to).
		Find(&appts).Error
	if err != nil {
		return nil, errors.Wrapf(err, "scan routine %s", routine.ID)
	}

	marks, err := s.marksFor(ctx, routine.ID, appts)
	if err != nil {
		return nil, err
	}

	var due []DueCandidate
	for _, a := range appts {
		if a.Customer.ID == uuid.Nil {
			continue
		}
		mark, marked := marks[a.ID]
		if marked && !mark.Stale(a.StartDatetime, routine.HoursBefore) {
			continue
		}
		loc := s.Location(a.Customer)
		ok, sendTime := IsDue(a.StartDatetime, routine.HoursBefore, now, window, loc)
		if !ok {
			continue
		}
		due = append(due, DueCandidate{Appointment: a, SendTime: sendTime, Location: loc, Readmitted: marked})
	}
	return due, nil
}

// FindForce ignores the window: every unmarked appointment in the routine's
// status that has not started yet, earliest first.
func (s *DueScanner) FindForce(ctx context.Context, routine models.Routine) ([]DueCandidate, error) {
	now := s.now()
	from := utils.NaiveUTC(now.UTC()).Add(-coarseMargin)

	var appts []models.Appointment
	err := s.candidates(ctx, routine).
		Where("start_datetime > ?", from).
		Find(&appts).Error
	if err != nil {
		return nil, errors.Wrapf(err, "force scan routine %s", routine.ID)
	}

	marks, err := s.marksFor(ctx, routine.ID, appts)
	if err != nil {
		return nil, err
	}

	offset := time.Duration(routine.HoursBefore) * time.Hour
	var out []DueCandidate
	for _, a := range appts {
		if a.Customer.ID == uuid.Nil {
			continue
		}
		mark, marked := marks[a.ID]
		if marked && !mark.Stale(a.StartDatetime, routine.HoursBefore) {
			continue
		}
		loc := s.Location(a.Customer)
		start := utils.WallClockIn(a.StartDatetime, loc)
		if !start.After(now) {
			continue
		}
		out = append(out, DueCandidate{Appointment: a, SendTime: start.Add(-offset), Location: loc, Readmitted: marked})
	}
	return out, nil
}

func (s *DueScanner) candidates(ctx context.Context, routine models.Routine) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		Preload("Provider").
		Where("salon_id = ? AND status = ? AND is_unavailability = ?", routine.SalonID, routine.StatusToMatch, false).
		Order("start_datetime ASC")
}

func (s *DueScanner) marksFor(ctx context.Context, routineID uuid.UUID, appts []models.Appointment) (map[uuid.UUID]models.RoutineSendMark, error) {
	out := make(map[uuid.UUID]models.RoutineSendMark, len(appts))
	if len(appts) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		ids = append(ids, a.ID)
	}

	var marks []models.RoutineSendMark
	err := s.db.WithContext(ctx).
		Where("routine_id = ? AND appointment_id IN ?", routineID, ids).
		Find(&marks).Error
	if err != nil {
		return nil, errors.Wrap(err, "load routine marks")
	}
	for _, m := range marks {
		out[m.AppointmentID] = m
	}
	return out, nil
}
