package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchFilter is the user's vacancy search configuration
type SearchFilter struct {
	JobTitle        string `json:"jobTitle"`
	KeywordsInclude string `json:"keywordsInclude"`
	KeywordsExclude string `json:"keywordsExclude"`
	MinSalary       int    `json:"minSalary,omitempty"`
	MaxSalary       int    `json:"maxSalary,omitempty"`
	Location        string `json:"location"`
	CoverLetter     string `json:"coverLetter"`
	Limit           int    `json:"limit"`
	AutoApply       bool   `json:"autoApply"`
}

// Query builds the provider search parameters. Excluded keywords are never sent.
func (f SearchFilter) Query() url.Values {
	q := url.Values{}

	terms := make([]string, 0, 4)
	if title := strings.TrimSpace(f.JobTitle); title != "" {
		terms = append(terms, title)
	}
	terms = append(terms, splitKeywords(f.KeywordsInclude)...)
	if len(terms) > 0 {
		q.Set("text", strings.Join(terms, " "))
	}

	if f.MinSalary > 0 {
		q.Set("salary", strconv.Itoa(f.MinSalary))
	}
	if f.MaxSalary > 0 {
		q.Set("only_with_salary", "true")
	}
	if area := strings.TrimSpace(f.Location); area != "" {
		q.Set("area", area)
	}

	q.Set("per_page", strconv.Itoa(f.perPage()))
	return q
}

func (f SearchFilter) perPage() int {
	switch {
	case f.Limit <= 0:
		return defaultSearchLimit
	case f.Limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return f.Limit
	}
}

// ExcludedKeywords returns the lowercased exclusion list
func (f SearchFilter) ExcludedKeywords() []string {
	keywords := splitKeywords(f.KeywordsExclude)
	for i, kw := range keywords {
		keywords[i] = strings.ToLower(kw)
	}
	return keywords
}

// Exclude drops vacancies whose name, requirement or responsibility contains an excluded keyword.
// Matching is a case-insensitive substring test.
func (f SearchFilter) Exclude(vacancies []Vacancy) []Vacancy {
	keywords := f.ExcludedKeywords()
	if len(keywords) == 0 {
		return vacancies
	}

	kept := make([]Vacancy, 0, len(vacancies))
	for _, v := range vacancies {
		text := v.searchText()
		excluded := false
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, v)
		}
	}
	return kept
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
