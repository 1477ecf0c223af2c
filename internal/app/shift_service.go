package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/ctxutil"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
)

// ShiftServiceImpl implements the ShiftService interface.
type ShiftServiceImpl struct {
	shiftRepo  secondary.ShiftRepository
	workerRepo secondary.ShiftWorkerRepository
	cache      *Reconciler
}

// NewShiftService creates a new ShiftService with injected dependencies.
func NewShiftService(
	shiftRepo secondary.ShiftRepository,
	workerRepo secondary.ShiftWorkerRepository,
	cache *Reconciler,
) *ShiftServiceImpl {
	return &ShiftServiceImpl{
		shiftRepo:  shiftRepo,
		workerRepo: workerRepo,
		cache:      cache,
	}
}

// CreateShift creates a draft shift in the current project.
func (s *ShiftServiceImpl) CreateShift(ctx context.Context, req primary.CreateShiftRequest) (*models.Shift, error) {
	const action = "create_shift"

	projectID, err := s.cache.project()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("shift name is required")
	}
	if err := validateDate(req.ScheduledDate); err != nil {
		return nil, err
	}

	created, err := s.shiftRepo.Create(ctx, &models.Shift{
		ProjectID:        projectID,
		Name:             name,
		ScheduledDate:    req.ScheduledDate,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Status:           shift.InitialStatus(),
		Notes:            req.Notes,
		ShiftTasks:       req.Tasks,
		CustomCategories: req.CustomCategories,
	})
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to create shift: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeInsert, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateShift edits the planning fields of a shift. Closed shifts are read-only.
func (s *ShiftServiceImpl) UpdateShift(ctx context.Context, req primary.UpdateShiftRequest) (*models.Shift, error) {
	current, err := s.cachedShift(req.ShiftID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("shift %s is %s and can no longer be edited", current.ID, current.Status)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		current.Name = name
	}
	if req.ScheduledDate != "" {
		if err := validateDate(req.ScheduledDate); err != nil {
			return nil, err
		}
		current.ScheduledDate = req.ScheduledDate
	}
	if req.StartTime != "" {
		current.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		current.EndTime = req.EndTime
	}
	if req.Notes != "" {
		current.Notes = req.Notes
	}
	if req.Tasks != nil {
		current.ShiftTasks = req.Tasks
	}
	if req.ShiftNotes != nil {
		current.ShiftNotes = req.ShiftNotes
	}
	if req.CustomCategories != nil {
		current.CustomCategories = req.CustomCategories
	}

	return s.updateShift(ctx, "update_shift", &current)
}

// DeleteShift removes a shift and its roster. The cached roster is dropped
// before the shift itself.
func (s *ShiftServiceImpl) DeleteShift(ctx context.Context, shiftID string) error {
	const action = "delete_shift"

	current, err := s.cachedShift(shiftID)
	if err != nil {
		return err
	}
	roster := s.cache.store.ShiftWorkers(shiftID)

	if err := s.shiftRepo.Delete(ctx, shiftID); err != nil {
		return s.cache.fail(action, fmt.Errorf("failed to delete shift: %w", err))
	}

	for _, w := range roster {
		if err := s.cache.deleted(ctx, action, w); err != nil {
			return err
		}
	}
	return s.cache.deleted(ctx, action, current)
}

// StartShift moves a draft shift to active.
func (s *ShiftServiceImpl) StartShift(ctx context.Context, shiftID string) (*models.Shift, error) {
	current, err := s.cachedShift(shiftID)
	if err != nil {
		return nil, err
	}

	guard := shift.CanStart(shift.StatusContext{ShiftID: current.ID, Status: current.Status})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	current.Status = shift.StatusActive
	return s.updateShift(ctx, "start_shift", &current)
}

// CloseoutShift completes an active shift. The closeout gate runs on the
// cached roster before anything is sent to the backend.
func (s *ShiftServiceImpl) CloseoutShift(ctx context.Context, req primary.CloseoutShiftRequest) (*models.Shift, error) {
	const action = "closeout_shift"

	if _, err := s.cache.project(); err != nil {
		return nil, err
	}
	view, ok := s.cache.store.Shift(req.ShiftID)
	if !ok {
		return nil, notCached("shift", req.ShiftID)
	}

	err := shift.ValidateCloseout(shift.CloseoutContext{
		ShiftID:          view.ID,
		Status:           view.Status,
		WorkerCount:      view.WorkerCount,
		FormsSubmitted:   view.FormsSubmitted,
		Checklist:        req.Checklist,
		IncompleteReason: req.IncompleteReason,
	})
	if err != nil {
		return nil, err
	}

	transition := shift.ApplyTransition(shift.StatusCompleted, s.cache.now(), ctxutil.ActorOrDefault(ctx))
	closing := view.Shift
	closing.Status = transition.NewStatus
	closing.ClosedAt = transition.ClosedAt
	closing.ClosedBy = transition.ClosedBy
	closing.CloseoutChecklist = req.Checklist
	closing.CloseoutNotes = req.Notes
	closing.IncompleteReason = strings.TrimSpace(req.IncompleteReason)

	closed, err := s.shiftRepo.Close(ctx, &closing)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to close out shift: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *closed); err != nil {
		return nil, err
	}
	return closed, nil
}

// CancelShift cancels a draft or active shift.
func (s *ShiftServiceImpl) CancelShift(ctx context.Context, shiftID string) (*models.Shift, error) {
	current, err := s.cachedShift(shiftID)
	if err != nil {
		return nil, err
	}

	guard := shift.CanCancel(shift.StatusContext{ShiftID: current.ID, Status: current.Status})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	transition := shift.ApplyTransition(shift.StatusCancelled, s.cache.now(), ctxutil.ActorOrDefault(ctx))
	current.Status = transition.NewStatus
	current.ClosedAt = transition.ClosedAt
	current.ClosedBy = transition.ClosedBy
	return s.updateShift(ctx, "cancel_shift", &current)
}

// AddWorker puts a worker on a shift's roster.
func (s *ShiftServiceImpl) AddWorker(ctx context.Context, req primary.AddWorkerRequest) (*models.ShiftWorker, error) {
	const action = "add_worker"

	current, err := s.cachedShift(req.ShiftID)
	if err != nil {
		return nil, err
	}

	worker := &models.ShiftWorker{
		ShiftID:            current.ID,
		ProjectID:          current.ProjectID,
		WorkerType:         req.WorkerType,
		ContactID:          req.ContactID,
		Name:               strings.TrimSpace(req.Name),
		Phone:              req.Phone,
		Email:              req.Email,
		NotificationMethod: req.NotificationMethod,
		NotificationStatus: shift.NotificationPending,
	}
	if worker.NotificationMethod == "" {
		worker.NotificationMethod = shift.NotifyNone
	}

	guard := shift.CanAddWorker(shift.AddWorkerContext{
		ShiftID:     current.ID,
		ShiftStatus: current.Status,
		WorkerType:  worker.WorkerType,
		ContactID:   worker.ContactID,
		Name:        worker.Name,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	if worker.WorkerType == shift.WorkerRegistered {
		contact, ok := s.cache.store.Contact(worker.ContactID)
		if !ok {
			return nil, notCached("contact", worker.ContactID)
		}
		if worker.Name == "" {
			worker.Name = contact.Name
		}
		if worker.Phone == "" {
			worker.Phone = contact.Phone
		}
		if worker.Email == "" {
			worker.Email = contact.Email
		}
	}

	added, err := s.workerRepo.Add(ctx, worker)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to add worker: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeInsert, *added); err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveWorker takes a worker off a roster that is not frozen.
func (s *ShiftServiceImpl) RemoveWorker(ctx context.Context, workerID string) error {
	const action = "remove_worker"

	worker, err := s.cachedRosterWorker(workerID)
	if err != nil {
		return err
	}

	if err := s.workerRepo.Remove(ctx, workerID); err != nil {
		return s.cache.fail(action, fmt.Errorf("failed to remove worker: %w", err))
	}
	return s.cache.deleted(ctx, action, worker)
}

// UpdateWorker edits a worker's contact details and notification method.
func (s *ShiftServiceImpl) UpdateWorker(ctx context.Context, req primary.UpdateWorkerRequest) (*models.ShiftWorker, error) {
	worker, err := s.cachedRosterWorker(req.WorkerID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		worker.Name = name
	}
	if req.Phone != "" {
		worker.Phone = req.Phone
	}
	if req.Email != "" {
		worker.Email = req.Email
	}
	if req.NotificationMethod != "" {
		worker.NotificationMethod = req.NotificationMethod
	}

	return s.updateWorker(ctx, "update_worker", &worker)
}

// RecordNotificationStatus records a delivery report. Re-reporting the
// current status, or a report older than the cached one, returns the cached
// row without a backend call.
func (s *ShiftServiceImpl) RecordNotificationStatus(ctx context.Context, workerID string, status shift.NotificationStatus) (*models.ShiftWorker, error) {
	worker, err := s.cachedWorker(workerID)
	if err != nil {
		return nil, err
	}

	if shift.IsStaleNotification(worker.NotificationStatus, status) {
		s.cache.logger.Debug("stale notification report dropped",
			zap.String("worker_id", worker.ID),
			zap.String("current", string(worker.NotificationStatus)),
			zap.String("reported", string(status)))
		return &worker, nil
	}

	guard := shift.CanAdvanceNotification(shift.NotificationContext{
		WorkerID: worker.ID,
		Current:  worker.NotificationStatus,
		Reported: status,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	if worker.NotificationStatus == status {
		return &worker, nil
	}

	worker.NotificationStatus = status
	return s.updateWorker(ctx, "record_notification_status", &worker)
}

// MarkFormSubmitted records a worker's form. Marking it twice is a no-op.
func (s *ShiftServiceImpl) MarkFormSubmitted(ctx context.Context, workerID string) (*models.ShiftWorker, error) {
	worker, err := s.cachedWorker(workerID)
	if err != nil {
		return nil, err
	}

	guard := shift.CanSetFormSubmitted(shift.FormContext{
		WorkerID:  worker.ID,
		Current:   worker.FormSubmitted,
		Requested: true,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	if worker.FormSubmitted {
		return &worker, nil
	}

	at := s.cache.now().UTC()
	worker.FormSubmitted = true
	worker.FormSubmittedAt = &at
	return s.updateWorker(ctx, "mark_form_submitted", &worker)
}

// HandleReceipt applies a notification receipt for the current project.
// Receipts for other projects are ignored.
func (s *ShiftServiceImpl) HandleReceipt(ctx context.Context, r secondary.NotificationReceipt) error {
	if r.ProjectID != s.cache.store.ProjectID() {
		return nil
	}
	_, err := s.RecordNotificationStatus(ctx, r.WorkerID, r.Status)
	return err
}

func (s *ShiftServiceImpl) updateShift(ctx context.Context, action string, sh *models.Shift) (*models.Shift, error) {
	updated, err := s.shiftRepo.Update(ctx, sh)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to update shift: %w", err))
	}
	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ShiftServiceImpl) updateWorker(ctx context.Context, action string, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	updated, err := s.workerRepo.Update(ctx, w)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to update worker: %w", err))
	}
	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ShiftServiceImpl) cachedShift(id string) (models.Shift, error) {
	if _, err := s.cache.project(); err != nil {
		return models.Shift{}, err
	}
	view, ok := s.cache.store.Shift(id)
	if !ok {
		return models.Shift{}, notCached("shift", id)
	}
	return view.Shift, nil
}

func (s *ShiftServiceImpl) cachedWorker(id string) (models.ShiftWorker, error) {
	if _, err := s.cache.project(); err != nil {
		return models.ShiftWorker{}, err
	}
	w, ok := s.cache.store.ShiftWorker(id)
	if !ok {
		return models.ShiftWorker{}, notCached("shift worker", id)
	}
	return w, nil
}

// cachedRosterWorker returns a worker whose shift roster may still change.
func (s *ShiftServiceImpl) cachedRosterWorker(id string) (models.ShiftWorker, error) {
	w, err := s.cachedWorker(id)
	if err != nil {
		return models.ShiftWorker{}, err
	}
	if view, ok := s.cache.store.Shift(w.ShiftID); ok {
		guard := shift.CanMutateRoster(shift.RosterContext{ShiftID: view.ID, Status: view.Status})
		if err := guard.Error(); err != nil {
			return models.ShiftWorker{}, err
		}
	}
	return w, nil
}

var _ primary.ShiftService = (*ShiftServiceImpl)(nil)
