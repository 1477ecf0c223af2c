package app

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
)

const testProject = "PRJ-1"

// ============================================================================
// Cache
// ============================================================================

// newTestCache starts a store scoped to testProject and returns a
// Reconciler over it.
func newTestCache(t *testing.T) (*Reconciler, *store.Store) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	st := store.New()
	events := make(chan store.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = st.Run(ctx, events)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if err := st.Reset(ctx, testProject); err != nil {
		t.Fatalf("failed to reset store: %v", err)
	}
	return NewReconciler(st, nil, metrics.New(nil)), st
}

func seed(t *testing.T, st *store.Store, rows ...models.Entity) {
	t.Helper()
	for _, row := range rows {
		ev, err := store.Upserted(models.ChangeInsert, row)
		if err != nil {
			t.Fatalf("failed to build seed event: %v", err)
		}
		if applied, err := st.Reconcile(context.Background(), ev); err != nil || !applied {
			t.Fatalf("failed to seed %s: applied=%v err=%v", row.EntityID(), applied, err)
		}
	}
}

// ============================================================================
// Repositories
// ============================================================================

// mockWrites counts backend writes and fails them on demand.
type mockWrites struct {
	writes int
	err    error
	nextID int
}

func (m *mockWrites) write() error {
	m.writes++
	return m.err
}

func (m *mockWrites) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%03d", prefix, m.nextID)
}

type mockDailyLogRepository struct {
	mockWrites
	logs map[string]*models.DailyLog
}

func newMockDailyLogRepository() *mockDailyLogRepository {
	return &mockDailyLogRepository{logs: make(map[string]*models.DailyLog)}
}

func (m *mockDailyLogRepository) List(ctx context.Context, projectID string) ([]*models.DailyLog, error) {
	var out []*models.DailyLog
	for _, l := range m.logs {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockDailyLogRepository) Create(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *log
	row.ID = m.id("LOG")
	row.Version = 1
	m.logs[row.ID] = &row
	return &row, nil
}

func (m *mockDailyLogRepository) Update(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *log
	row.Version++
	m.logs[row.ID] = &row
	return &row, nil
}

func (m *mockDailyLogRepository) Delete(ctx context.Context, id string) error {
	if err := m.write(); err != nil {
		return err
	}
	delete(m.logs, id)
	return nil
}

type mockShiftRepository struct {
	mockWrites
	shifts map[string]*models.Shift
	closed int
}

func newMockShiftRepository() *mockShiftRepository {
	return &mockShiftRepository{shifts: make(map[string]*models.Shift)}
}

func (m *mockShiftRepository) List(ctx context.Context, projectID string) ([]*models.Shift, error) {
	var out []*models.Shift
	for _, s := range m.shifts {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepository) Create(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *s
	row.ID = m.id("SHIFT")
	row.Version = 1
	m.shifts[row.ID] = &row
	return &row, nil
}

func (m *mockShiftRepository) Update(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *s
	row.Version++
	m.shifts[row.ID] = &row
	return &row, nil
}

func (m *mockShiftRepository) Close(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	m.closed++
	return m.Update(ctx, s)
}

func (m *mockShiftRepository) Delete(ctx context.Context, id string) error {
	if err := m.write(); err != nil {
		return err
	}
	delete(m.shifts, id)
	return nil
}

type mockShiftWorkerRepository struct {
	mockWrites
	workers map[string]*models.ShiftWorker
}

func newMockShiftWorkerRepository() *mockShiftWorkerRepository {
	return &mockShiftWorkerRepository{workers: make(map[string]*models.ShiftWorker)}
}

func (m *mockShiftWorkerRepository) List(ctx context.Context, projectID string) ([]*models.ShiftWorker, error) {
	var out []*models.ShiftWorker
	for _, w := range m.workers {
		if w.ProjectID == projectID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockShiftWorkerRepository) Add(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *w
	row.ID = m.id("WRK")
	row.Version = 1
	m.workers[row.ID] = &row
	return &row, nil
}

func (m *mockShiftWorkerRepository) Update(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *w
	row.Version++
	m.workers[row.ID] = &row
	return &row, nil
}

func (m *mockShiftWorkerRepository) Remove(ctx context.Context, id string) error {
	if err := m.write(); err != nil {
		return err
	}
	delete(m.workers, id)
	return nil
}

type mockDocumentRepository struct {
	mockWrites
	docs map[string]*models.ReceivedDocument
}

func newMockDocumentRepository() *mockDocumentRepository {
	return &mockDocumentRepository{docs: make(map[string]*models.ReceivedDocument)}
}

func (m *mockDocumentRepository) List(ctx context.Context, projectID string) ([]*models.ReceivedDocument, error) {
	var out []*models.ReceivedDocument
	for _, d := range m.docs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocumentRepository) Update(ctx context.Context, d *models.ReceivedDocument) (*models.ReceivedDocument, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *d
	row.Version++
	m.docs[row.ID] = &row
	return &row, nil
}

type mockContactRepository struct {
	mockWrites
	contacts map[string]*models.Contact
}

func newMockContactRepository() *mockContactRepository {
	return &mockContactRepository{contacts: make(map[string]*models.Contact)}
}

func (m *mockContactRepository) List(ctx context.Context, projectID string) ([]*models.Contact, error) {
	var out []*models.Contact
	for _, c := range m.contacts {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactRepository) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *c
	row.ID = m.id("CON")
	row.Version = 1
	m.contacts[row.ID] = &row
	return &row, nil
}

func (m *mockContactRepository) Update(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *c
	row.Version++
	m.contacts[row.ID] = &row
	return &row, nil
}

func (m *mockContactRepository) Delete(ctx context.Context, id string) error {
	if err := m.write(); err != nil {
		return err
	}
	delete(m.contacts, id)
	return nil
}

type mockSubcontractorRepository struct {
	mockWrites
	subs map[string]*models.Subcontractor
}

func newMockSubcontractorRepository() *mockSubcontractorRepository {
	return &mockSubcontractorRepository{subs: make(map[string]*models.Subcontractor)}
}

func (m *mockSubcontractorRepository) List(ctx context.Context, projectID string) ([]*models.Subcontractor, error) {
	var out []*models.Subcontractor
	for _, s := range m.subs {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubcontractorRepository) Create(ctx context.Context, s *models.Subcontractor) (*models.Subcontractor, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *s
	row.ID = m.id("SUB")
	row.Version = 1
	m.subs[row.ID] = &row
	return &row, nil
}

func (m *mockSubcontractorRepository) Delete(ctx context.Context, id string) error {
	if err := m.write(); err != nil {
		return err
	}
	delete(m.subs, id)
	return nil
}

type mockProjectRepository struct {
	mockWrites
	projects map[string]*models.Project
}

func newMockProjectRepository() *mockProjectRepository {
	return &mockProjectRepository{projects: make(map[string]*models.Project)}
}

func (m *mockProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	row := *p
	row.ID = m.id("PRJ")
	row.IsActive = true
	m.projects[row.ID] = &row
	return &row, nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, secondary.ErrNotFound)
	}
	row := *p
	return &row, nil
}

func (m *mockProjectRepository) List(ctx context.Context, filters secondary.ProjectFilters) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range m.projects {
		if filters.OwnerID != "" && p.OwnerID != filters.OwnerID {
			continue
		}
		if !filters.IncludeArchived && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProjectRepository) Archive(ctx context.Context, id string) (*models.Project, error) {
	if err := m.write(); err != nil {
		return nil, err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, secondary.ErrNotFound)
	}
	p.IsActive = false
	row := *p
	return &row, nil
}

// ============================================================================
// Collaborators
// ============================================================================

type mockAttachmentStore struct {
	uploads []secondary.Attachment
	err     error
}

func (m *mockAttachmentStore) Upload(ctx context.Context, a secondary.Attachment) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(a.Body); err != nil {
		return "", err
	}
	m.uploads = append(m.uploads, a)
	return fmt.Sprintf("attachments/%s/%s/%s", a.ProjectID, a.LogID, a.FileName), nil
}

type mockReportWriter struct {
	reports []secondary.DailyReport
}

func (m *mockReportWriter) WriteDailyReport(ctx context.Context, w io.Writer, r secondary.DailyReport) error {
	m.reports = append(m.reports, r)
	_, err := io.WriteString(w, r.Date)
	return err
}

var (
	_ secondary.DailyLogRepository      = (*mockDailyLogRepository)(nil)
	_ secondary.ShiftRepository         = (*mockShiftRepository)(nil)
	_ secondary.ShiftWorkerRepository   = (*mockShiftWorkerRepository)(nil)
	_ secondary.DocumentRepository      = (*mockDocumentRepository)(nil)
	_ secondary.ContactRepository       = (*mockContactRepository)(nil)
	_ secondary.SubcontractorRepository = (*mockSubcontractorRepository)(nil)
	_ secondary.ProjectRepository       = (*mockProjectRepository)(nil)
	_ secondary.AttachmentStore         = (*mockAttachmentStore)(nil)
	_ secondary.ReportWriter            = (*mockReportWriter)(nil)
)
