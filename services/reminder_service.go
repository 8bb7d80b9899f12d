// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/gateway"
	"salonpro-notifier/metrics"
	"salonpro-notifier/models"
	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// MessageSender is the delivery side of a gateway, bound to one
// configuration snapshot.
type MessageSender interface {
	Provider() string
	EnsureAuthenticated() error
	SendMessage(ctx context.Context, phone, message string) gateway.Result
}

// SenderFactory builds a sender from the current gateway configuration.
// It is called once per run.
type SenderFactory func() MessageSender

type ReminderConfig struct {
	Window          time.Duration
	DuplicateWindow time.Duration
	DefaultTimezone string
	DefaultLanguage string
}

// ReminderService runs routines: scan, render, guard, deliver, record.
type ReminderService struct {
	db         *gorm.DB
	cfg        ReminderConfig
	scanner    *DueScanner
	templates  *TemplateRenderer
	guard      *IdempotencyGuard
	sends      *SendLedger
	executions *ExecutionLedger
	newSender  SenderFactory
	locker     RunLocker
	metrics    metrics.Sink
	log        zerolog.Logger
	now        func() time.Time
}

type ServiceOption func(*ReminderService)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *ReminderService) { s.now = now }
}

func WithRunLocker(l RunLocker) ServiceOption {
	return func(s *ReminderService) { s.locker = l }
}

func WithMetrics(m metrics.Sink) ServiceOption {
	return func(s *ReminderService) { s.metrics = m }
}

func NewReminderService(db *gorm.DB, cfg ReminderConfig, newSender SenderFactory, log zerolog.Logger, opts ...ServiceOption) *ReminderService {
	s := &ReminderService{
		db:        db,
		cfg:       cfg,
		newSender: newSender,
		locker:    NewLocalRunLocker(),
		metrics:   metrics.NewNoopSink(),
		log:       log.With().Str("component", "reminders").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scanner = NewDueScanner(db, cfg.DefaultTimezone, s.now)
	s.templates = NewTemplateRenderer(db, cfg.DefaultLanguage)
	s.sends = NewSendLedger(db, s.now)
	s.guard = NewIdempotencyGuard(s.sends, s.now)
	s.executions = NewExecutionLedger(db, s.now)
	return s
}

func (s *ReminderService) Sends() *SendLedger           { return s.sends }
func (s *ReminderService) Executions() *ExecutionLedger { return s.executions }

// RunSummary reports what one run did. Execution is nil when nothing was due.
type RunSummary struct {
	RoutineID  uuid.UUID            `json:"routineId"`
	Mode       string               `json:"mode"`
	Candidates int                  `json:"candidates"`
	Succeeded  int                  `json:"succeeded"`
	Failed     int                  `json:"failed"`
	Skipped    int                  `json:"skipped"`
	Execution  *models.ExecutionLog `json:"execution,omitempty"`
}

// RunAllActive runs every active routine once with scheduled semantics.
// A routine that is already running is skipped, not reported as an error.
func (s *ReminderService) RunAllActive(ctx context.Context) error {
	var routines []models.Routine
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&routines).Error; err != nil {
		return errors.Wrap(err, "load active routines")
	}
	s.log.Info().Int("routines", len(routines)).Msg("starting reminder processing")

	var errs error
	for _, routine := range routines {
		if err := ctx.Err(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "reminder processing interrupted"))
			break
		}
		_, err := s.RunRoutine(ctx, routine)
		if errors.Is(err, apperrors.ErrRunInProgress) {
			continue
		}
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "routine %q", routine.Name))
		}
	}

	s.log.Info().Msg("reminder processing completed")
	return errs
}

// Routine loads one routine by id.
func (s *ReminderService) Routine(ctx context.Context, id uuid.UUID) (models.Routine, error) {
	var routine models.Routine
	err := s.db.WithContext(ctx).First(&routine, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return routine, apperrors.NotFound(err, "routine")
	}
	return routine, errors.Wrap(err, "load routine")
}

// RunRoutine sends the reminders currently due for routine.
func (s *ReminderService) RunRoutine(ctx context.Context, routine models.Routine) (*RunSummary, error) {
	return s.run(ctx, routine, models.ModeScheduled)
}

// ForceRoutine sends to every future, unmarked appointment of the routine
// regardless of the window. Sends go through the duplicate guard as manual
// sends.
func (s *ReminderService) ForceRoutine(ctx context.Context, routine models.Routine) (*RunSummary, error) {
	return s.run(ctx, routine, models.ModeForce)
}

func (s *ReminderService) run(ctx context.Context, routine models.Routine, mode string) (*RunSummary, error) {
	log := s.log.With().Str("routine_id", routine.ID.String()).Str("routine", routine.Name).Str("mode", mode).Logger()

	release, err := s.locker.TryLock(ctx, routine.ID.String())
	if err != nil {
		s.metrics.RunSkipped("in_progress")
		log.Info().Err(err).Msg("routine skipped")
		return nil, err
	}
	defer release()

	// One snapshot of the gateway configuration for the whole run.
	sender := s.newSender()
	if err := sender.EnsureAuthenticated(); err != nil {
		s.metrics.RunSkipped("configuration")
		log.Error().Err(err).Msg("routine skipped: gateway not configured")
		return nil, errors.Wrapf(err, "routine %s", routine.ID)
	}

	var candidates []DueCandidate
	if mode == models.ModeForce {
		candidates, err = s.scanner.FindForce(ctx, routine)
	} else {
		candidates, err = s.scanner.FindDue(ctx, routine, s.cfg.Window)
	}
	if err != nil {
		log.Error().Err(err).Msg("scan failed")
		if _, recErr := s.executions.RecordAbortedRun(context.WithoutCancel(ctx), routine, mode, err); recErr != nil {
			log.Error().Err(recErr).Msg("failed to record aborted run")
		}
		s.metrics.RunCompleted(mode, models.ExecutionFailure, 0)
		return nil, err
	}

	summary := &RunSummary{RoutineID: routine.ID, Mode: mode, Candidates: len(candidates)}
	if len(candidates) == 0 {
		log.Debug().Msg("nothing due")
		return summary, nil
	}

	meta := RunMeta{Mode: mode, Window: s.cfg.Window, TemplateID: routine.TemplateID}
	if mode == models.ModeForce {
		meta.Window = 0
	}
	if routine.TemplateID != nil {
		var tpl models.ReminderTemplate
		if err := s.db.WithContext(ctx).Select("name").First(&tpl, "id = ?", *routine.TemplateID).Error; err == nil {
			meta.TemplateName = tpl.Name
		}
	}

	run, err := s.executions.Start(ctx, routine, meta, len(candidates))
	if err != nil {
		log.Error().Err(err).Msg("could not open execution log")
		if _, recErr := s.executions.RecordAbortedRun(context.WithoutCancel(ctx), routine, mode, err); recErr != nil {
			log.Error().Err(recErr).Msg("failed to record aborted run")
		}
		s.metrics.RunCompleted(mode, models.ExecutionFailure, 0)
		return summary, err
	}
	s.metrics.RunStarted(mode)
	log = log.With().Str("execution_id", run.Log().ID.String()).Logger()
	log.Info().Int("candidates", len(candidates)).Msg("dispatching reminders")

	sendType := models.SendTypeRoutine
	if mode == models.ModeForce {
		sendType = models.SendTypeManual
	}

	var runErr error
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			runErr = errors.Wrap(err, "run interrupted")
			break
		}
		c := &candidates[i]
		out := s.deliver(ctx, sender, deliveryRequest{
			Appointment: c.Appointment,
			Routine:     &routine,
			TemplateID:  routine.TemplateID,
			StatusKey:   routine.StatusToMatch,
			SendType:    sendType,
			Candidate:   c,
		})
		s.recordOutcome(context.WithoutCancel(ctx), run, c.Appointment, out, summary, log)
	}

	// Finalize even when the loop was cut short.
	finishCtx := context.WithoutCancel(ctx)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := run.Finish(finishCtx, errMsg); err != nil {
		log.Error().Err(err).Msg("could not finalize execution log")
		runErr = errors.CombineErrors(runErr, err)
	}
	final := run.Log()
	summary.Execution = &final
	s.metrics.RunCompleted(mode, final.ExecutionStatus, time.Duration(final.ExecutionTimeSeconds*float64(time.Second)))

	log.Info().
		Str("status", final.ExecutionStatus).
		Int("successful", final.SuccessfulSends).
		Int("failed", final.FailedSends).
		Int("skipped", summary.Skipped).
		Msg("routine run finished")
	return summary, runErr
}

func (s *ReminderService) recordOutcome(ctx context.Context, run *ExecutionRun, appt models.Appointment, out deliveryOutcome, summary *RunSummary, log zerolog.Logger) {
	var err error
	switch out.Kind {
	case OutcomeSkipped:
		summary.Skipped++
		s.metrics.RecipientSkipped(out.Reason)
		err = run.RecordSkip(ctx, appt, out.Reason)
	case OutcomeSent:
		summary.Succeeded++
		err = run.RecordOutcome(ctx, appt, true, out.sendInfo())
	default:
		summary.Failed++
		err = run.RecordOutcome(ctx, appt, false, out.sendInfo())
	}
	if err != nil {
		log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("could not record recipient outcome")
	}
}

// Per-recipient outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type deliveryRequest struct {
	Appointment models.Appointment
	Routine     *models.Routine
	TemplateID  *uuid.UUID
	StatusKey   string
	SendType    string
	ForceSend   bool
	TimeChanged bool
	// Candidate is set for routine runs; a successful send marks it.
	Candidate *DueCandidate
}

type deliveryOutcome struct {
	Kind   string
	Reason string
	Record *models.SendRecord
	Result gateway.Result
	Err    error
}

func (o deliveryOutcome) sendInfo() SendInfo {
	info := SendInfo{HTTPStatus: o.Result.HTTPStatus}
	if o.Record != nil {
		id := o.Record.ID
		info.LogID = &id
	}
	if o.Err != nil {
		info.Error = o.Err.Error()
	}
	return info
}

// deliver handles one recipient. Errors and panics become a failed outcome;
// they never escape to the caller's loop.
func (s *ReminderService) deliver(ctx context.Context, sender MessageSender, req deliveryRequest) (out deliveryOutcome) {
	appt := req.Appointment
	log := s.log.With().Str("appointment_id", appt.ID.String()).Str("send_type", req.SendType).Logger()

	var rec *models.SendRecord
	defer func() {
		if r := recover(); r != nil {
			err := errors.Newf("panic while sending: %v", r)
			log.Error().Err(err).Msg("recipient failed")
			out = deliveryOutcome{Kind: OutcomeFailed, Record: rec, Err: err}
			if rec != nil && rec.Result == models.SendPending {
				s.failRecord(context.WithoutCancel(ctx), rec, gateway.Result{}, apperrors.CodeInternalError, err, log)
			}
		}
	}()

	language := s.templates.Language(ctx, appt)
	tpl, err := s.templates.Resolve(ctx, appt.SalonID, req.StatusKey, req.TemplateID, language)
	if errors.Is(err, apperrors.ErrNoTemplate) {
		log.Info().Str("status_key", req.StatusKey).Msg("no template, recipient skipped")
		return deliveryOutcome{Kind: OutcomeSkipped, Reason: SkipNoTemplate, Err: err}
	}
	if err != nil {
		return deliveryOutcome{Kind: OutcomeFailed, Err: err}
	}

	body := s.templates.Render(ctx, *tpl, appt, language)
	hash := BodyHash(appt.ID, tpl.ID, req.SendType, body)

	if !req.ForceSend {
		dup, err := s.guard.IsDuplicate(ctx, DuplicateCheck{
			AppointmentID: appt.ID,
			StatusKey:     req.StatusKey,
			TemplateID:    tpl.ID,
			SendType:      req.SendType,
			BodyHash:      hash,
			Window:        s.cfg.DuplicateWindow,
			TimeChanged:   req.TimeChanged,
		})
		if err != nil {
			return deliveryOutcome{Kind: OutcomeFailed, Err: err}
		}
		if dup {
			log.Info().Msg("duplicate send skipped")
			return deliveryOutcome{Kind: OutcomeSkipped, Reason: SkipDuplicate, Err: apperrors.ErrDuplicateSend}
		}
	}

	entry := SendEntry{
		SalonID:       appt.SalonID,
		AppointmentID: appt.ID,
		TemplateID:    tpl.ID,
		SendType:      req.SendType,
		StatusKey:     req.StatusKey,
		ToPhone:       appt.Customer.Phone,
		Message:       body,
		BodyHash:      hash,
		Provider:      sender.Provider(),
	}
	if req.Routine != nil {
		entry.RoutineID = &req.Routine.ID
	}
	rec, err = s.sends.CreateLogEntry(ctx, entry)
	if err != nil {
		return deliveryOutcome{Kind: OutcomeFailed, Err: err}
	}
	log = log.With().Str("send_record_id", rec.ID.String()).Logger()

	res := sender.SendMessage(ctx, appt.Customer.Phone, body)
	// The message may have left; its outcome is recorded even if ctx is done.
	persistCtx := context.WithoutCancel(ctx)
	outcome := metrics.OutcomeSuccess
	if !res.Success {
		outcome = metrics.OutcomeFailure
	}
	s.metrics.DeliveryCompleted(sender.Provider(), outcome, res.AttemptCount, time.Duration(res.ResponseTimeMs)*time.Millisecond)

	if !res.Success {
		code := apperrors.CodeSendError
		if errors.Is(res.Err, utils.ErrInvalidPhone) {
			code = apperrors.CodeInvalidPhone
		}
		err := res.Err
		if err == nil {
			err = errors.New("gateway reported failure")
		}
		s.failRecord(persistCtx, rec, res, code, err, log)
		log.Warn().Err(err).Int("http_status", res.HTTPStatus).Int("attempts", res.AttemptCount).Msg("reminder not delivered")
		return deliveryOutcome{Kind: OutcomeFailed, Record: rec, Result: res, Err: err}
	}

	if err := s.sends.UpdateLogResult(persistCtx, rec, SendOutcome{
		Result:         models.SendSuccess,
		HTTPStatus:     res.HTTPStatus,
		AttemptCount:   res.AttemptCount,
		ResponseTimeMs: res.ResponseTimeMs,
		Response:       models.JSONB(res.Body),
	}); err != nil {
		log.Error().Err(err).Msg("delivered but could not update send record")
	}

	if req.Candidate != nil && req.Routine != nil {
		if err := s.sends.MarkSent(persistCtx, MarkInput{
			RoutineID:            req.Routine.ID,
			AppointmentID:        appt.ID,
			LogID:                rec.ID,
			CalculatedSendTime:   req.Candidate.SendTime,
			AppointmentStartTime: appt.StartDatetime,
			HoursBefore:          req.Routine.HoursBefore,
		}); err != nil {
			log.Error().Err(err).Msg("delivered but could not mark appointment")
		}
	}

	log.Info().Int("attempts", res.AttemptCount).Msg("reminder delivered")
	return deliveryOutcome{Kind: OutcomeSent, Record: rec, Result: res}
}

func (s *ReminderService) failRecord(ctx context.Context, rec *models.SendRecord, res gateway.Result, code string, cause error, log zerolog.Logger) {
	err := s.sends.UpdateLogResult(ctx, rec, SendOutcome{
		Result:         models.SendFailure,
		HTTPStatus:     res.HTTPStatus,
		AttemptCount:   res.AttemptCount,
		ResponseTimeMs: res.ResponseTimeMs,
		Response:       models.JSONB(res.Body),
		ErrorCode:      code,
		ErrorMessage:   cause.Error(),
	})
	if err != nil {
		log.Error().Err(err).Msg("could not record failed send")
	}
}

// ManualSend asks for one message outside a routine run.
type ManualSend struct {
	AppointmentID uuid.UUID
	TemplateID    *uuid.UUID
	SendType      string
	// ForceSend skips the duplicate guard. A send record is still written.
	ForceSend   bool
	TimeChanged bool
}

// SendReport is the result of a manual send.
type SendReport struct {
	Outcome string             `json:"outcome"`
	Reason  string             `json:"reason,omitempty"`
	Error   string             `json:"error,omitempty"`
	Record  *models.SendRecord `json:"record,omitempty"`
}

// SendOne delivers a single message for an appointment, keyed by the
// appointment's current status. It writes no mark and no execution log.
func (s *ReminderService) SendOne(ctx context.Context, m ManualSend) (*SendReport, error) {
	appt, err := s.Appointment(ctx, m.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.IsUnavailability {
		return nil, errors.Newf("appointment %s is an unavailability block", appt.ID)
	}
	sendType := m.SendType
	if sendType == "" {
		sendType = models.SendTypeManual
	}

	sender := s.newSender()
	if err := sender.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	out := s.deliver(ctx, sender, deliveryRequest{
		Appointment: appt,
		TemplateID:  m.TemplateID,
		StatusKey:   appt.Status,
		SendType:    sendType,
		ForceSend:   m.ForceSend,
		TimeChanged: m.TimeChanged,
	})
	report := &SendReport{Outcome: out.Kind, Reason: out.Reason, Record: out.Record}
	if out.Err != nil && out.Kind != OutcomeSkipped {
		report.Error = out.Err.Error()
	}
	return report, nil
}

// Appointment loads an appointment with everything a message needs.
func (s *ReminderService) Appointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		Preload("Provider").
		First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appt, apperrors.NotFound(err, fmt.Sprintf("appointment %s", id))
	}
	return appt, errors.Wrap(err, "load appointment")
}
