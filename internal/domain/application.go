package domain

import "time"

// ApplicationStatus is the lifecycle state of a submitted application
type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "applied"
	ApplicationViewed    ApplicationStatus = "viewed"
	ApplicationInvited   ApplicationStatus = "invited"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

// ApplicationRecord is the local history entry of one application. Unique per (UserID, VacancyID).
type ApplicationRecord struct {
	ID            string            `json:"id" db:"id"`
	UserID        string            `json:"user_id" db:"user_id"`
	VacancyID     string            `json:"vacancy_id" db:"vacancy_id"`
	VacancyTitle  string            `json:"vacancy_title" db:"vacancy_title"`
	CompanyName   string            `json:"company_name" db:"company_name"`
	SalaryDisplay string            `json:"salary_display" db:"salary_display"`
	Location      string            `json:"location" db:"location"`
	AppliedAt     time.Time         `json:"applied_at" db:"applied_at"`
	Status        ApplicationStatus `json:"status" db:"status"`
	URL           string            `json:"url" db:"url"`
	CoverLetter   string            `json:"cover_letter" db:"cover_letter"`
}

// ApplicationStats counts a user's applications per status
type ApplicationStats struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Viewed    int `json:"viewed"`
	Invited   int `json:"invited"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

// NewApplicationStats tallies records by status
func NewApplicationStats(records []*ApplicationRecord) ApplicationStats {
	stats := ApplicationStats{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case ApplicationApplied:
			stats.Applied++
		case ApplicationViewed:
			stats.Viewed++
		case ApplicationInvited:
			stats.Invited++
		case ApplicationRejected:
			stats.Rejected++
		case ApplicationCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// NewApplicationRecord builds the history entry for a vacancy the user just applied to
func NewApplicationRecord(userID string, v *Vacancy, coverLetter string, appliedAt time.Time) *ApplicationRecord {
	return &ApplicationRecord{
		UserID:        userID,
		VacancyID:     v.ID,
		VacancyTitle:  v.Name,
		CompanyName:   v.Employer.Name,
		SalaryDisplay: v.Salary.Display(),
		Location:      v.Area.Name,
		AppliedAt:     appliedAt,
		Status:        ApplicationApplied,
		URL:           v.AlternateURL,
		CoverLetter:   coverLetter,
	}
}
