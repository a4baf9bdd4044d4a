package domain

import (
	"fmt"
	"strings"
)

// Vacancy mirrors the provider's vacancy representation (list item and detail share these fields)
type Vacancy struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Area         Area     `json:"area"`
	Salary       *Salary  `json:"salary"`
	Employer     Employer `json:"employer"`
	Snippet      *Snippet `json:"snippet,omitempty"`
	AlternateURL string   `json:"alternate_url"`
	PublishedAt  string   `json:"published_at"`
}

type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Employer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    bool   `json:"gross"`
}

// Snippet holds the highlighted requirement and responsibility text of a search hit
type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

// Display renders the salary range the way the history screen shows it
func (s *Salary) Display() string {
	if s == nil {
		return "Не указана"
	}

	from := s.From != nil && *s.From > 0
	to := s.To != nil && *s.To > 0

	switch {
	case from && to:
		return fmt.Sprintf("%d - %d %s", *s.From, *s.To, s.Currency)
	case from:
		return fmt.Sprintf("от %d %s", *s.From, s.Currency)
	case to:
		return fmt.Sprintf("до %d %s", *s.To, s.Currency)
	default:
		return "Не указана"
	}
}

// searchText is the lowercased text that keyword exclusion matches against
func (v Vacancy) searchText() string {
	var b strings.Builder
	b.WriteString(v.Name)
	if v.Snippet != nil {
		b.WriteByte(' ')
		b.WriteString(v.Snippet.Requirement)
		b.WriteByte(' ')
		b.WriteString(v.Snippet.Responsibility)
	}
	return strings.ToLower(b.String())
}

// VacancyPage is one page of provider search results
type VacancyPage struct {
	Items   []Vacancy `json:"items"`
	Found   int       `json:"found"`
	Pages   int       `json:"pages"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

// Resume is a job seeker resume owned by the user
type Resume struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"status,omitempty"`
	UpdatedAt    string `json:"updated_at"`
	AlternateURL string `json:"alternate_url"`
}

// ResumeList is the provider's resume listing. NotJobSeeker is set when the provider refuses the listing with 403.
type ResumeList struct {
	Items        []Resume `json:"items"`
	Found        int      `json:"found"`
	NotJobSeeker bool     `json:"-"`
}

// Negotiation is an application as tracked by the provider
type Negotiation struct {
	ID    string `json:"id"`
	State *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"state"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	HasUpdates bool     `json:"has_updates"`
	Vacancy    *Vacancy `json:"vacancy"`
}

type NegotiationList struct {
	Items []Negotiation `json:"items"`
	Found int           `json:"found"`
}
