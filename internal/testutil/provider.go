package testutil

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
)

// TokenIssuer is a scripted provider token endpoint
type TokenIssuer struct {
	ExchangeFunc func(ctx context.Context, code string) (*hh.Token, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*hh.Token, error)

	// RefreshDelay holds each refresh open, for single-flight tests
	RefreshDelay time.Duration

	mu            sync.Mutex
	exchangeCalls int
	refreshCalls  int
	lastCode      string
}

func (i *TokenIssuer) Exchange(ctx context.Context, code string) (*hh.Token, error) {
	i.mu.Lock()
	i.exchangeCalls++
	i.lastCode = code
	i.mu.Unlock()

	if i.ExchangeFunc != nil {
		return i.ExchangeFunc(ctx, code)
	}
	return &hh.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, ExpiresIn: 3600}, nil
}

func (i *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*hh.Token, error) {
	i.mu.Lock()
	i.refreshCalls++
	i.mu.Unlock()

	if i.RefreshDelay > 0 {
		time.Sleep(i.RefreshDelay)
	}
	if i.RefreshFunc != nil {
		return i.RefreshFunc(ctx, refreshToken)
	}
	return &hh.Token{AccessToken: "refreshed-access", RefreshToken: "refreshed-refresh", ExpiresIn: 3600}, nil
}

func (i *TokenIssuer) ExchangeCalls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.exchangeCalls
}

func (i *TokenIssuer) RefreshCalls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.refreshCalls
}

func (i *TokenIssuer) LastCode() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastCode
}

// ProviderAPI is a scripted provider resource API. Unset funcs return benign defaults.
type ProviderAPI struct {
	Profile         *domain.Profile
	MeErr           error
	Vacancies       []domain.Vacancy
	SearchErr       error
	VacancyErr      error
	ResumeList      *domain.ResumeList
	ResumesErr      error
	NegotiationList *domain.NegotiationList
	NegotiationsErr error

	// ApplyFunc overrides the default 303 answer
	ApplyFunc func(ctx context.Context, accessToken string, req hh.ApplyRequest) (*hh.ApplyResult, error)

	mu        sync.Mutex
	calls     map[string]int
	lastQuery url.Values
	lastToken string
	applied   []hh.ApplyRequest
}

func (p *ProviderAPI) record(op, accessToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[op]++
	p.lastToken = accessToken
}

// Calls returns how often an operation was invoked
func (p *ProviderAPI) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

func (p *ProviderAPI) LastQuery() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastQuery
}

func (p *ProviderAPI) LastToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastToken
}

// Applied returns the submitted applications in order
func (p *ProviderAPI) Applied() []hh.ApplyRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]hh.ApplyRequest(nil), p.applied...)
}

func (p *ProviderAPI) Me(_ context.Context, accessToken string) (*domain.Profile, error) {
	p.record("me", accessToken)
	if p.MeErr != nil {
		return nil, p.MeErr
	}
	if p.Profile == nil {
		return &domain.Profile{ID: "42", Email: "dev@example.com", FirstName: "Ivan", LastName: "Petrov"}, nil
	}
	profile := *p.Profile
	return &profile, nil
}

func (p *ProviderAPI) SearchVacancies(_ context.Context, accessToken string, query url.Values) (*domain.VacancyPage, error) {
	p.record("search", accessToken)
	p.mu.Lock()
	p.lastQuery = query
	p.mu.Unlock()
	if p.SearchErr != nil {
		return nil, p.SearchErr
	}
	items := append([]domain.Vacancy{}, p.Vacancies...)
	return &domain.VacancyPage{Items: items, Found: len(items), Pages: 1, PerPage: len(items)}, nil
}

func (p *ProviderAPI) Vacancy(_ context.Context, accessToken, vacancyID string) (*domain.Vacancy, error) {
	p.record("vacancy", accessToken)
	if p.VacancyErr != nil {
		return nil, p.VacancyErr
	}
	for _, v := range p.Vacancies {
		if v.ID == vacancyID {
			found := v
			return &found, nil
		}
	}
	return &domain.Vacancy{
		ID:           vacancyID,
		Name:         "Vacancy " + vacancyID,
		Employer:     domain.Employer{Name: "Acme"},
		Area:         domain.Area{ID: "1", Name: "Москва"},
		AlternateURL: "https://hh.ru/vacancy/" + vacancyID,
	}, nil
}

func (p *ProviderAPI) Resumes(_ context.Context, accessToken string) (*domain.ResumeList, error) {
	p.record("resumes", accessToken)
	if p.ResumesErr != nil {
		return nil, p.ResumesErr
	}
	if p.ResumeList == nil {
		return &domain.ResumeList{Items: []domain.Resume{}}, nil
	}
	return p.ResumeList, nil
}

func (p *ProviderAPI) Negotiations(_ context.Context, accessToken string) (*domain.NegotiationList, error) {
	p.record("negotiations", accessToken)
	if p.NegotiationsErr != nil {
		return nil, p.NegotiationsErr
	}
	if p.NegotiationList == nil {
		return &domain.NegotiationList{Items: []domain.Negotiation{}}, nil
	}
	return p.NegotiationList, nil
}

func (p *ProviderAPI) Apply(ctx context.Context, accessToken string, req hh.ApplyRequest) (*hh.ApplyResult, error) {
	p.record("apply", accessToken)
	p.mu.Lock()
	p.applied = append(p.applied, req)
	p.mu.Unlock()
	if p.ApplyFunc != nil {
		return p.ApplyFunc(ctx, accessToken, req)
	}
	return &hh.ApplyResult{Status: 303, Location: "/negotiations/" + req.VacancyID}, nil
}
