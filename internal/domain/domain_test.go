package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestSalaryDisplay(t *testing.T) {
	tests := []struct {
		name   string
		salary *Salary
		want   string
	}{
		{"nil", nil, "Не указана"},
		{"range", &Salary{From: intPtr(100000), To: intPtr(150000), Currency: "RUR"}, "100000 - 150000 RUR"},
		{"from only", &Salary{From: intPtr(100000), Currency: "RUR"}, "от 100000 RUR"},
		{"to only", &Salary{To: intPtr(90000), Currency: "USD"}, "до 90000 USD"},
		{"zero bounds", &Salary{From: intPtr(0), To: intPtr(0), Currency: "RUR"}, "Не указана"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.salary.Display())
		})
	}
}

func TestSearchFilterQuery(t *testing.T) {
	f := SearchFilter{
		JobTitle:        " Go developer ",
		KeywordsInclude: "kafka, postgres,",
		KeywordsExclude: "php",
		MinSalary:       200000,
		MaxSalary:       400000,
		Location:        "1",
		Limit:           50,
	}

	q := f.Query()
	assert.Equal(t, "Go developer kafka postgres", q.Get("text"))
	assert.Equal(t, "200000", q.Get("salary"))
	assert.Equal(t, "true", q.Get("only_with_salary"))
	assert.Equal(t, "1", q.Get("area"))
	assert.Equal(t, "50", q.Get("per_page"))
	assert.NotContains(t, q.Encode(), "php")
}

func TestSearchFilterQueryDefaults(t *testing.T) {
	q := SearchFilter{}.Query()
	assert.False(t, q.Has("text"))
	assert.False(t, q.Has("salary"))
	assert.False(t, q.Has("area"))
	assert.Equal(t, "20", q.Get("per_page"))

	assert.Equal(t, "100", SearchFilter{Limit: 500}.Query().Get("per_page"))
}

func TestSearchFilterExclude(t *testing.T) {
	vacancies := []Vacancy{
		{ID: "1", Name: "Python Dev"},
		{ID: "2", Name: "PHP Dev"},
		{ID: "3", Name: "Backend", Snippet: &Snippet{Requirement: "Experience with Bitrix"}},
		{ID: "4", Name: "Go Dev", Snippet: &Snippet{Responsibility: "Build services"}},
	}

	kept := SearchFilter{KeywordsExclude: "php, BITRIX"}.Exclude(vacancies)
	require.Len(t, kept, 2)
	assert.Equal(t, "1", kept[0].ID)
	assert.Equal(t, "4", kept[1].ID)

	assert.Len(t, SearchFilter{}.Exclude(vacancies), 4)
}

func TestNewOAuthState(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	first, err := NewOAuthState(now)
	require.NoError(t, err)
	second, err := NewOAuthState(now)
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, now, first.CreatedAt)

	parts := strings.Split(first.Value, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "loyw3v28", parts[1])
	assert.Len(t, parts[0], 16)
	assert.Len(t, parts[2], 16)
}

func TestApplicationStats(t *testing.T) {
	records := []*ApplicationRecord{
		{Status: ApplicationApplied},
		{Status: ApplicationApplied},
		{Status: ApplicationViewed},
		{Status: ApplicationCancelled},
	}

	stats := NewApplicationStats(records)
	assert.Equal(t, ApplicationStats{Total: 4, Applied: 2, Viewed: 1, Cancelled: 1}, stats)
	assert.Equal(t, ApplicationStats{}, NewApplicationStats(nil))
}

func TestNewApplicationRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &Vacancy{
		ID:           "v1",
		Name:         "Go Developer",
		Employer:     Employer{Name: "Acme"},
		Area:         Area{Name: "Казань"},
		AlternateURL: "https://hh.ru/vacancy/v1",
	}

	r := NewApplicationRecord("u1", v, "Hi", at)
	assert.Equal(t, "v1", r.VacancyID)
	assert.Equal(t, "Не указана", r.SalaryDisplay)
	assert.Equal(t, "Казань", r.Location)
	assert.Equal(t, ApplicationApplied, r.Status)
	assert.Equal(t, at, r.AppliedAt)
}

func TestTokenRecordIsExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, TokenRecord{ExpiresAt: now}.IsExpired(now))
	assert.True(t, TokenRecord{ExpiresAt: now.Add(-time.Second)}.IsExpired(now))
	assert.False(t, TokenRecord{ExpiresAt: now.Add(time.Second)}.IsExpired(now))
	assert.Equal(t, now.UnixMilli(), TokenRecord{ExpiresAt: now}.ExpiresAtMillis())
}
