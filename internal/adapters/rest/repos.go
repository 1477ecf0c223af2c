package rest

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

// ErrShiftNotActive is returned by Close when the shift left the active
// status before the closeout was written.
var ErrShiftNotActive = errors.New("shift is no longer active")

// Writable columns per table. Server-managed columns (id, timestamps,
// version) are never sent.
var (
	projectColumns  = []string{"name", "address", "is_active", "owner_id"}
	dailyLogColumns = []string{"project_id", "log_date", "log_type", "content", "metadata", "status", "created_by"}
	shiftColumns    = []string{
		"project_id", "name", "scheduled_date", "start_time", "end_time", "status", "notes",
		"shift_tasks", "shift_notes", "custom_categories",
		"closeout_checklist", "closeout_notes", "closed_at", "closed_by", "incomplete_reason",
	}
	shiftWorkerColumns = []string{
		"shift_id", "project_id", "worker_type", "contact_id", "name", "phone", "email",
		"notification_method", "notification_status", "form_submitted", "form_submitted_at",
	}
	documentColumns      = []string{"folder_id", "shift_id", "status", "rejection_reason", "reviewed_by", "reviewed_at"}
	contactColumns       = []string{"project_id", "name", "company", "role", "phone", "email", "subcontractor_id"}
	subcontractorColumns = []string{"project_id", "name", "trade", "contact_email", "phone"}
)

func byProject(projectID string) filter {
	return filter{"project_id": eq(projectID), "order": "created_at.asc"}
}

func byID(id string) filter {
	return filter{"id": eq(id)}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, secondary.ErrNotFound)
}

// ============================================================================
// Projects
// ============================================================================

// ProjectRepository implements secondary.ProjectRepository over the API.
type ProjectRepository struct {
	client *Client
}

func NewProjectRepository(c *Client) *ProjectRepository {
	return &ProjectRepository{client: c}
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	body, err := payload(p, projectColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Project
	if err := r.client.insert(ctx, "projects", withID(body, p.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var rows []models.Project
	if err := r.client.selectRows(ctx, "projects", byID(id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("project", id)
	}
	return &rows[0], nil
}

func (r *ProjectRepository) List(ctx context.Context, filters secondary.ProjectFilters) ([]*models.Project, error) {
	params := filter{"order": "created_at.asc"}
	if filters.OwnerID != "" {
		params["owner_id"] = eq(filters.OwnerID)
	}
	if !filters.IncludeArchived {
		params["is_active"] = eq(strconv.FormatBool(true))
	}

	var rows []models.Project
	if err := r.client.selectRows(ctx, "projects", params, &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *ProjectRepository) Archive(ctx context.Context, id string) (*models.Project, error) {
	var out models.Project
	err := r.client.update(ctx, "projects", byID(id), map[string]any{"is_active": false}, &out, notFound("project", id))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Daily logs
// ============================================================================

// DailyLogRepository implements secondary.DailyLogRepository over the API.
type DailyLogRepository struct {
	client *Client
}

func NewDailyLogRepository(c *Client) *DailyLogRepository {
	return &DailyLogRepository{client: c}
}

func (r *DailyLogRepository) List(ctx context.Context, projectID string) ([]*models.DailyLog, error) {
	var rows []models.DailyLog
	if err := r.client.selectRows(ctx, string(models.TableDailyLogs), byProject(projectID), &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *DailyLogRepository) Create(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	body, err := payload(log, dailyLogColumns...)
	if err != nil {
		return nil, err
	}
	var out models.DailyLog
	if err := r.client.insert(ctx, string(models.TableDailyLogs), withID(body, log.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DailyLogRepository) Update(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	body, err := payload(log, dailyLogColumns...)
	if err != nil {
		return nil, err
	}
	var out models.DailyLog
	if err := r.client.update(ctx, string(models.TableDailyLogs), byID(log.ID), body, &out, notFound("daily log", log.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DailyLogRepository) Delete(ctx context.Context, id string) error {
	return r.client.remove(ctx, string(models.TableDailyLogs), byID(id), notFound("daily log", id))
}

// ============================================================================
// Shifts
// ============================================================================

// ShiftRepository implements secondary.ShiftRepository over the API.
type ShiftRepository struct {
	client *Client
}

func NewShiftRepository(c *Client) *ShiftRepository {
	return &ShiftRepository{client: c}
}

func (r *ShiftRepository) List(ctx context.Context, projectID string) ([]*models.Shift, error) {
	var rows []models.Shift
	if err := r.client.selectRows(ctx, string(models.TableShifts), byProject(projectID), &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *ShiftRepository) Create(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	body, err := payload(s, shiftColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Shift
	if err := r.client.insert(ctx, string(models.TableShifts), withID(body, s.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ShiftRepository) Update(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	body, err := payload(s, shiftColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Shift
	if err := r.client.update(ctx, string(models.TableShifts), byID(s.ID), body, &out, notFound("shift", s.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close writes the closeout only while the stored shift is still active.
func (r *ShiftRepository) Close(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	body, err := payload(s, "status", "closeout_checklist", "closeout_notes", "closed_at", "closed_by", "incomplete_reason")
	if err != nil {
		return nil, err
	}
	params := byID(s.ID)
	params["status"] = eq(string(shift.StatusActive))

	var out models.Shift
	err = r.client.update(ctx, string(models.TableShifts), params, body, &out,
		fmt.Errorf("shift %s: %w", s.ID, ErrShiftNotActive))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a shift. The database cascades to its roster.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	return r.client.remove(ctx, string(models.TableShifts), byID(id), notFound("shift", id))
}

// ============================================================================
// Shift workers
// ============================================================================

// ShiftWorkerRepository implements secondary.ShiftWorkerRepository over the API.
type ShiftWorkerRepository struct {
	client *Client
}

func NewShiftWorkerRepository(c *Client) *ShiftWorkerRepository {
	return &ShiftWorkerRepository{client: c}
}

func (r *ShiftWorkerRepository) List(ctx context.Context, projectID string) ([]*models.ShiftWorker, error) {
	var rows []models.ShiftWorker
	if err := r.client.selectRows(ctx, string(models.TableShiftWorkers), byProject(projectID), &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *ShiftWorkerRepository) Add(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	body, err := payload(w, shiftWorkerColumns...)
	if err != nil {
		return nil, err
	}
	var out models.ShiftWorker
	if err := r.client.insert(ctx, string(models.TableShiftWorkers), withID(body, w.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ShiftWorkerRepository) Update(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	body, err := payload(w, shiftWorkerColumns...)
	if err != nil {
		return nil, err
	}
	var out models.ShiftWorker
	if err := r.client.update(ctx, string(models.TableShiftWorkers), byID(w.ID), body, &out, notFound("shift worker", w.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ShiftWorkerRepository) Remove(ctx context.Context, id string) error {
	return r.client.remove(ctx, string(models.TableShiftWorkers), byID(id), notFound("shift worker", id))
}

// ============================================================================
// Documents
// ============================================================================

// DocumentRepository implements secondary.DocumentRepository over the API.
type DocumentRepository struct {
	client *Client
}

func NewDocumentRepository(c *Client) *DocumentRepository {
	return &DocumentRepository{client: c}
}

func (r *DocumentRepository) List(ctx context.Context, projectID string) ([]*models.ReceivedDocument, error) {
	params := filter{"project_id": eq(projectID), "order": "received_at.asc"}
	var rows []models.ReceivedDocument
	if err := r.client.selectRows(ctx, string(models.TableDocuments), params, &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *models.ReceivedDocument) (*models.ReceivedDocument, error) {
	body, err := payload(d, documentColumns...)
	if err != nil {
		return nil, err
	}
	var out models.ReceivedDocument
	if err := r.client.update(ctx, string(models.TableDocuments), byID(d.ID), body, &out, notFound("document", d.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Directory
// ============================================================================

// ContactRepository implements secondary.ContactRepository over the API.
type ContactRepository struct {
	client *Client
}

func NewContactRepository(c *Client) *ContactRepository {
	return &ContactRepository{client: c}
}

func (r *ContactRepository) List(ctx context.Context, projectID string) ([]*models.Contact, error) {
	var rows []models.Contact
	if err := r.client.selectRows(ctx, string(models.TableContacts), byProject(projectID), &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	body, err := payload(c, contactColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Contact
	if err := r.client.insert(ctx, string(models.TableContacts), withID(body, c.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	body, err := payload(c, contactColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Contact
	if err := r.client.update(ctx, string(models.TableContacts), byID(c.ID), body, &out, notFound("contact", c.ID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	return r.client.remove(ctx, string(models.TableContacts), byID(id), notFound("contact", id))
}

// SubcontractorRepository implements secondary.SubcontractorRepository over the API.
type SubcontractorRepository struct {
	client *Client
}

func NewSubcontractorRepository(c *Client) *SubcontractorRepository {
	return &SubcontractorRepository{client: c}
}

func (r *SubcontractorRepository) List(ctx context.Context, projectID string) ([]*models.Subcontractor, error) {
	var rows []models.Subcontractor
	if err := r.client.selectRows(ctx, string(models.TableSubcontractors), byProject(projectID), &rows); err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

func (r *SubcontractorRepository) Create(ctx context.Context, s *models.Subcontractor) (*models.Subcontractor, error) {
	body, err := payload(s, subcontractorColumns...)
	if err != nil {
		return nil, err
	}
	var out models.Subcontractor
	if err := r.client.insert(ctx, string(models.TableSubcontractors), withID(body, s.ID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SubcontractorRepository) Delete(ctx context.Context, id string) error {
	return r.client.remove(ctx, string(models.TableSubcontractors), byID(id), notFound("subcontractor", id))
}

// NewBackend wires every repository over one client.
func NewBackend(c *Client) *secondary.Backend {
	return &secondary.Backend{
		Projects:       NewProjectRepository(c),
		DailyLogs:      NewDailyLogRepository(c),
		Shifts:         NewShiftRepository(c),
		ShiftWorkers:   NewShiftWorkerRepository(c),
		Documents:      NewDocumentRepository(c),
		Contacts:       NewContactRepository(c),
		Subcontractors: NewSubcontractorRepository(c),
	}
}

func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

var (
	_ secondary.ProjectRepository       = (*ProjectRepository)(nil)
	_ secondary.DailyLogRepository      = (*DailyLogRepository)(nil)
	_ secondary.ShiftRepository         = (*ShiftRepository)(nil)
	_ secondary.ShiftWorkerRepository   = (*ShiftWorkerRepository)(nil)
	_ secondary.DocumentRepository      = (*DocumentRepository)(nil)
	_ secondary.ContactRepository       = (*ContactRepository)(nil)
	_ secondary.SubcontractorRepository = (*SubcontractorRepository)(nil)
)
