package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockUniversityRepo struct {
	listFn    func(ctx context.Context, filter repository.UniversityFilter) ([]domain.UniversityRecord, error)
	getByIDFn func(ctx context.Context, id string) (*domain.UniversityRecord, error)
}

func (m *mockUniversityRepo) List(ctx context.Context, filter repository.UniversityFilter) ([]domain.UniversityRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockUniversityRepo) GetByID(ctx context.Context, id string) (*domain.UniversityRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("university", id)
}

func (m *mockUniversityRepo) Upsert(_ context.Context, u []domain.UniversityRecord) (int, error) {
	return len(u), nil
}

type mockCandidateRepo struct {
	listFn    func(ctx context.Context, filter repository.CandidateFilter) ([]domain.CandidateRecord, error)
	getByIDFn func(ctx context.Context, id string) (*domain.CandidateRecord, error)
}

func (m *mockCandidateRepo) List(ctx context.Context, filter repository.CandidateFilter) ([]domain.CandidateRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockCandidateRepo) GetByID(ctx context.Context, id string) (*domain.CandidateRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("candidate", id)
}

func (m *mockCandidateRepo) Upsert(_ context.Context, c []domain.CandidateRecord) (int, error) {
	return len(c), nil
}

type mockPublicationRepo struct {
	listFn func(ctx context.Context, candidateIDs []string, years *domain.YearRange) ([]domain.RawPublication, error)
}

func (m *mockPublicationRepo) ListByCandidates(ctx context.Context, candidateIDs []string, years *domain.YearRange) ([]domain.RawPublication, error) {
	if m.listFn != nil {
		return m.listFn(ctx, candidateIDs, years)
	}
	return nil, nil
}

func (m *mockPublicationRepo) Upsert(_ context.Context, p []domain.Publication) (int, error) {
	return len(p), nil
}

type mockMetricsRepo struct {
	listFn func(ctx context.Context, universityIDs []string, years domain.YearRange) ([]domain.AcademicMetricRecord, error)
}

func (m *mockMetricsRepo) List(ctx context.Context, universityIDs []string, years domain.YearRange) ([]domain.AcademicMetricRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, universityIDs, years)
	}
	return nil, nil
}

func (m *mockMetricsRepo) Upsert(_ context.Context, r []domain.AcademicMetricRecord) (int, error) {
	return len(r), nil
}

type mockChatProvider struct {
	chatFn func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	calls  int
}

func (m *mockChatProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.calls++
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return &llm.ChatResponse{Content: "ok", Model: "mock-model"}, nil
}

func (m *mockChatProvider) Provider() string { return "mock" }
func (m *mockChatProvider) Model() string    { return "mock-model" }

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type fixture struct {
	universities *mockUniversityRepo
	candidates   *mockCandidateRepo
	publications *mockPublicationRepo
	metrics      *mockMetricsRepo
}

func newFixture() *fixture {
	return &fixture{
		universities: &mockUniversityRepo{},
		candidates:   &mockCandidateRepo{},
		publications: &mockPublicationRepo{},
		metrics:      &mockMetricsRepo{},
	}
}

func (f *fixture) service(chat llm.ChatProvider, metrics *observability.Metrics) *TalentService {
	return New(Repositories{
		Universities:    f.universities,
		Candidates:      f.candidates,
		Publications:    f.publications,
		AcademicMetrics: f.metrics,
	}, chat, Config{
		MaxCandidates:          2000,
		DefaultYears:           domain.YearRange{Start: 2015, End: 2025},
		DefaultComparisonYears: domain.YearRange{Start: 2019, End: 2024},
	}, zerolog.Nop(), metrics)
}

func intPtr(v int) *int { return &v }

var (
	testUniversities = []domain.UniversityRecord{
		{ID: "u-cmu", Name: "Carnegie Mellon University", Country: "US", Ranking: intPtr(2)},
		{ID: "u-mit", Name: "MIT", Country: "US", Ranking: intPtr(1)},
	}
	testCandidates = []domain.CandidateRecord{
		{ID: "c1", Name: "Jane Doe", UniversityID: "u-cmu", ResearchInterests: []string{"Large Language Models"}, TotalCitations: 300, HIndex: 7, GraduationYear: 2023},
		{ID: "c2", Name: "John Roe", UniversityID: "u-mit", ResearchInterests: []string{"Federated Learning"}, TotalCitations: 50, HIndex: 3, GraduationYear: 2022},
	}
	testPublications = []domain.RawPublication{
		{"id": "p1", "candidate_id": "c1", "title": "Scaling LLMs", "venue": "NeurIPS 2023", "year": float64(2023), "citations": float64(90)},
		{"id": "p2", "candidate_id": "c1", "title": "scaling  LLMs", "venue": "NeurIPS 2023", "year": float64(2023), "citations": float64(10)},
		{"id": "p3", "candidate_id": "c2", "title": "Federated Things", "venue": "ICML", "year": float64(2021), "citations": float64(20)},
	}
)
