package service

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	leads map[uuid.UUID]*domain.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]*domain.Lead{}}
}

func (f *fakeRepo) Insert(_ context.Context, p repository.InsertParams) (domain.Lead, error) {
	lead := domain.Lead{
		ID:        uuid.New(),
		Company:   p.Company,
		Email:     p.Email,
		Phone:     p.Phone,
		Status:    domain.StatusNew,
		Research:  p.Research,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.leads[lead.ID] = &lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return *lead, nil
}

func (f *fakeRepo) Advance(_ context.Context, leadID uuid.UUID, from, to domain.Status) error {
	lead, ok := f.leads[leadID]
	if !ok || lead.Status != from || lead.ClaimedAt != nil {
		return repository.ErrLeadNotFound
	}
	lead.Status = to
	return nil
}

func (f *fakeRepo) Reset(_ context.Context, leadID uuid.UUID) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrLeadNotFound
	}
	lead.Status = domain.StatusReadyToSend
	lead.ClaimedAt = nil
	lead.ClaimedBy = nil
	lead.Attempts = 0
	lead.CooldownUntil = nil
	lead.FailureReason = nil
	return nil
}

func (f *fakeRepo) CountByStatus(_ context.Context) (map[domain.Status]int64, error) {
	counts := map[domain.Status]int64{}
	for _, lead := range f.leads {
		counts[lead.Status]++
	}
	return counts, nil
}

func (f *fakeRepo) CountStaleClaims(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type emptyTouches struct{}

func (emptyTouches) ListByLead(_ context.Context, _ uuid.UUID) ([]touches.Touch, error) {
	return nil, nil
}

func (emptyTouches) CountByChannel(_ context.Context) (map[domain.Channel]int64, error) {
	return map[domain.Channel]int64{}, nil
}

func newService(repo LeadRepo) *Service {
	return New(repo, emptyTouches{}, 10*time.Minute, logger.New("development"))
}

func strPtr(s string) *string { return &s }

func TestIngestNormalizesPhone(t *testing.T) {
	svc := newService(newFakeRepo())

	lead, err := svc.Ingest(context.Background(), IngestParams{
		Company: "Acme Fencing",
		Phone:   strPtr("(415) 555-2671"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if lead.PhoneNumber() != "+14155552671" {
		t.Fatalf("phone = %q, want +14155552671", lead.PhoneNumber())
	}
	if lead.Status != domain.StatusNew {
		t.Fatalf("status = %q, want new", lead.Status)
	}
}

func TestIngestRejectsInvalidPhone(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.Ingest(context.Background(), IngestParams{
		Company: "Acme Fencing",
		Phone:   strPtr("not a phone"),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestIngestRejectsLeadWithoutContact(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.Ingest(context.Background(), IngestParams{Company: "Acme Fencing"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestIngestStampsResearchSchemaVersion(t *testing.T) {
	svc := newService(newFakeRepo())

	lead, err := svc.Ingest(context.Background(), IngestParams{
		Company:  "Acme Fencing",
		Email:    strPtr("sales@acme.example"),
		Research: &domain.Research{Industry: "construction"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if lead.Research == nil || lead.Research.SchemaVersion != domain.ResearchSchemaVersion {
		t.Fatalf("research = %+v, want schema version %d", lead.Research, domain.ResearchSchemaVersion)
	}
}

func TestAdvanceFollowsTransitionTable(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	lead, err := svc.Ingest(context.Background(), IngestParams{
		Company: "Acme Fencing",
		Email:   strPtr("sales@acme.example"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Advance(context.Background(), lead.ID, domain.StatusResearchDone)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusResearchDone {
		t.Fatalf("status = %q, want research_done", got.Status)
	}

	// new → contacted is not in the table.
	_, err = svc.Advance(context.Background(), lead.ID, domain.StatusContacted)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict for illegal transition", err)
	}
}

func TestAdvanceRejectsInFlightTargets(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	lead, _ := svc.Ingest(context.Background(), IngestParams{
		Company: "Acme Fencing",
		Email:   strPtr("sales@acme.example"),
	})

	_, err := svc.Advance(context.Background(), lead.ID, domain.StatusSendingEmail)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error for in-flight target", err)
	}
}

func TestAdvanceUnknownLead(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.Advance(context.Background(), uuid.New(), domain.StatusNurture)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestResetClearsFailureState(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	lead, _ := svc.Ingest(context.Background(), IngestParams{
		Company: "Acme Fencing",
		Email:   strPtr("sales@acme.example"),
	})
	stored := repo.leads[lead.ID]
	stored.Status = domain.StatusFailed
	stored.Attempts = 3
	stored.FailureReason = strPtr("gave up after 3 attempts")

	got, err := svc.Reset(context.Background(), lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusReadyToSend {
		t.Fatalf("status = %q, want ready_to_send", got.Status)
	}
	if got.Attempts != 0 || got.FailureReason != nil {
		t.Fatalf("reset left attempts=%d reason=%v", got.Attempts, got.FailureReason)
	}
}

func TestStatsAggregates(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	for range 3 {
		_, err := svc.Ingest(context.Background(), IngestParams{
			Company: "Acme Fencing",
			Email:   strPtr("sales@acme.example"),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.LeadsByStatus[domain.StatusNew] != 3 {
		t.Fatalf("new count = %d, want 3", stats.LeadsByStatus[domain.StatusNew])
	}
}
