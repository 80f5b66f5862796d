package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/solvik/mediavault/internal/model"
)

// ---------- Fake incident store ----------

// fakeIncidentStore is an in-memory IncidentStore tracking the same
// bookkeeping the SQL store maintains, so engine and strategy behavior can
// be asserted end to end.
type fakeIncidentStore struct {
	incidents map[string]*model.Incident
	nextID    int

	recordErr       error
	findErr         error
	markResolvedErr error
	claimErr        error
	severityErr     error
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: map[string]*model.Incident{}}
}

func (s *fakeIncidentStore) add(inc *model.Incident) *model.Incident {
	if inc.ID == "" {
		s.nextID++
		inc.ID = fmt.Sprintf("inc_%04d", s.nextID)
	}
	cp := *inc
	s.incidents[cp.ID] = &cp
	return s.incidents[cp.ID]
}

func (s *fakeIncidentStore) Record(ctx context.Context, inc *model.Incident) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.nextID++
	inc.ID = fmt.Sprintf("inc_%04d", s.nextID)
	inc.CreatedAt = time.Now()
	inc.UpdatedAt = inc.CreatedAt
	cp := *inc
	s.incidents[cp.ID] = &cp
	return nil
}

func (s *fakeIncidentStore) RecordIfNotExists(ctx context.Context, inc *model.Incident) (bool, error) {
	if s.recordErr != nil {
		return false, s.recordErr
	}
	if inc.UniqueSignature != nil {
		for _, existing := range s.incidents {
			if existing.ResolvedAt == nil && existing.UniqueSignature != nil && *existing.UniqueSignature == *inc.UniqueSignature {
				*inc = *existing
				return false, nil
			}
		}
	}
	return true, s.Record(ctx, inc)
}

func (s *fakeIncidentStore) FindByID(ctx context.Context, id string) (*model.Incident, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	inc, ok := s.incidents[id]
	if !ok {
		return nil, fmt.Errorf("get incident %s: no rows in result set", id)
	}
	cp := *inc
	if inc.Metadata != nil {
		cp.Metadata = model.Metadata{}
		for k, v := range inc.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp, nil
}

func (s *fakeIncidentStore) UpdateSeverity(ctx context.Context, id string, severity model.Severity) error {
	if s.severityErr != nil {
		return s.severityErr
	}
	if inc, ok := s.incidents[id]; ok {
		inc.Severity = severity
	}
	return nil
}

func (s *fakeIncidentStore) MarkResolved(ctx context.Context, id string, resolvedAt time.Time, autoResolved bool) error {
	if s.markResolvedErr != nil {
		return s.markResolvedErr
	}
	inc, ok := s.incidents[id]
	if !ok || inc.ResolvedAt != nil {
		return nil
	}
	at := resolvedAt
	inc.ResolvedAt = &at
	inc.AutoResolved = autoResolved
	if autoResolved {
		if inc.Metadata == nil {
			inc.Metadata = model.Metadata{}
		}
		inc.Metadata[model.MetaAutoRecovered] = true
	}
	return nil
}

func (s *fakeIncidentStore) ResolveBySource(ctx context.Context, sourceType, sourceID string) (int, error) {
	if s.markResolvedErr != nil {
		return 0, s.markResolvedErr
	}
	n := 0
	now := time.Now()
	for _, inc := range s.incidents {
		if inc.ResolvedAt == nil && inc.SourceType == sourceType && inc.SourceRef() == sourceID {
			at := now
			inc.ResolvedAt = &at
			inc.AutoResolved = true
			n++
		}
	}
	return n, nil
}

func (s *fakeIncidentStore) IncrementRepairAttempts(ctx context.Context, id string) error {
	inc, ok := s.incidents[id]
	if !ok {
		return nil
	}
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}
	inc.Metadata[model.MetaRepairAttempts] = inc.Metadata.RepairAttempts() + 1
	return nil
}

func (s *fakeIncidentStore) ClaimRetry(ctx context.Context, incidentID string, at time.Time) (bool, error) {
	if s.claimErr != nil {
		return false, s.claimErr
	}
	inc, ok := s.incidents[incidentID]
	if !ok || inc.ResolvedAt != nil || inc.Metadata.Retried() {
		return false, nil
	}
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}
	inc.Metadata[model.MetaRetried] = true
	inc.Metadata[model.MetaRetriedAt] = at.UTC().Format(time.RFC3339)
	return true, nil
}

func (s *fakeIncidentStore) ClaimRetrySlot(ctx context.Context, incidentID string, max int, at time.Time) (int, bool, error) {
	if s.claimErr != nil {
		return 0, false, s.claimErr
	}
	inc, ok := s.incidents[incidentID]
	if !ok || inc.ResolvedAt != nil {
		return 0, false, nil
	}
	count := inc.Metadata.RetryCount()
	if count >= max {
		return count, false, nil
	}
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}
	count++
	inc.Metadata[model.MetaRetryCount] = count
	inc.Metadata[model.MetaRetried] = true
	inc.Metadata[model.MetaRetriedAt] = at.UTC().Format(time.RFC3339)
	return count, true, nil
}

// ---------- Fake asset repository ----------

type fakeAssetRepo struct {
	assets  map[string]*model.Asset
	findErr error
}

func newFakeAssetRepo(assets ...*model.Asset) *fakeAssetRepo {
	r := &fakeAssetRepo{assets: map[string]*model.Asset{}}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeAssetRepo) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// ---------- Fake reconciler ----------

// fakeReconciler returns canned changes and can flip asset state mid-test
// via the onReconcile hook, mimicking a reconciliation that repairs drift.
type fakeReconciler struct {
	changes     []Change
	err         error
	calls       int
	onReconcile func(asset *model.Asset)
}

func (f *fakeReconciler) Reconcile(ctx context.Context, asset *model.Asset) ([]Change, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.onReconcile != nil {
		f.onReconcile(asset)
	}
	return f.changes, nil
}

// ---------- Fake job dispatcher ----------

type fakeDispatcher struct {
	processing  []string
	thumbnails  []string
	promotions  []string
	dispatchErr error
}

func (d *fakeDispatcher) DispatchAssetProcessing(ctx context.Context, assetID string) error {
	if d.dispatchErr != nil {
		return d.dispatchErr
	}
	d.processing = append(d.processing, assetID)
	return nil
}

func (d *fakeDispatcher) DispatchThumbnailRegeneration(ctx context.Context, assetID string) error {
	if d.dispatchErr != nil {
		return d.dispatchErr
	}
	d.thumbnails = append(d.thumbnails, assetID)
	return nil
}

func (d *fakeDispatcher) DispatchPromotionRetry(ctx context.Context, assetID string) error {
	if d.dispatchErr != nil {
		return d.dispatchErr
	}
	d.promotions = append(d.promotions, assetID)
	return nil
}

func (d *fakeDispatcher) total() int {
	return len(d.processing) + len(d.thumbnails) + len(d.promotions)
}

// ---------- Fake ticket creator ----------

type fakeTicketCreator struct {
	created   []*model.Ticket
	createErr error
}

func (f *fakeTicketCreator) CreateFromIncident(ctx context.Context, inc *model.Incident) (*model.Ticket, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	ticket := &model.Ticket{
		ID:         fmt.Sprintf("tkt_%04d", len(f.created)+1),
		IncidentID: &inc.ID,
		Subject:    inc.Title,
		Status:     model.TicketOpen,
	}
	f.created = append(f.created, ticket)
	return ticket, nil
}

// ---------- Fake strategy ----------

// fakeStrategy lets engine tests script strategy selection and outcomes.
type fakeStrategy struct {
	name     string
	supports bool
	result   RepairResult
	err      error
	attempts int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Supports(inc *model.Incident) bool { return f.supports }

func (f *fakeStrategy) Attempt(ctx context.Context, inc *model.Incident) (RepairResult, error) {
	f.attempts++
	if f.err != nil {
		return RepairResult{}, f.err
	}
	return f.result, f.err
}
