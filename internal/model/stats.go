package model

// IssueCount summarizes one recurring issue for the teacher dashboard.
type IssueCount struct {
	Issue IssueCategory `json:"issue"`
	Count int           `json:"count"`
}

// StrategySummary is a slim view of a strategy that worked.
type StrategySummary struct {
	Summary string `json:"summary"`
	Rating  int    `json:"rating"`
}

// TeacherStats is the per-teacher dashboard payload, derived from
// classroom memory.
type TeacherStats struct {
	TotalSOSRequests int               `json:"totalSosRequests"`
	TotalResolutions int               `json:"totalSuccessfulResolutions"`
	TopIssues        []IssueCount      `json:"topIssues"`
	BestStrategies   []StrategySummary `json:"bestStrategies"`
	SubjectsTaught   []string          `json:"subjectsTaught"`
}

// OverviewStats is the public system overview for the landing page.
type OverviewStats struct {
	TotalSOSRequests int64   `json:"totalSosRequests"`
	TotalPlaybooks   int64   `json:"totalPlaybooksGenerated"`
	TotalResolved    int64   `json:"successfulResolutions"`
	SuccessRate      float64 `json:"successRate"`
}
