package model

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssuePattern is a recurring classroom problem for one teacher
type IssuePattern struct {
	IssueType       IssueCategory `json:"issueType" bson:"issueType"`
	Subject         string        `json:"subject,omitempty" bson:"subject,omitempty"`
	OccurrenceCount int           `json:"occurrenceCount" bson:"occurrenceCount"`
	LastOccurred    time.Time     `json:"lastOccurred" bson:"lastOccurred"`
}

// SuccessfulStrategy is a playbook the teacher reported as working
type SuccessfulStrategy struct {
	PlaybookID string    `json:"playbookId" bson:"playbookId"`
	Summary    string    `json:"summary" bson:"summary"`
	Subject    string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Topic      string    `json:"topic,omitempty" bson:"topic,omitempty"`
	Rating     int       `json:"rating" bson:"rating"` // 1-5
	UsedCount  int       `json:"usedCount" bson:"usedCount"`
	LastUsed   time.Time `json:"lastUsed" bson:"lastUsed"`
}

// ClassroomMemory aggregates one teacher's SOS history so repeated
// problems and proven strategies can surface on the dashboard.
type ClassroomMemory struct {
	ID                   primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	TeacherID            string               `json:"teacherId" bson:"teacherId"`
	TotalSOSRequests     int                  `json:"totalSosRequests" bson:"totalSosRequests"`
	TotalPlaybooks       int                  `json:"totalPlaybooksGenerated" bson:"totalPlaybooksGenerated"`
	TotalResolutions     int                  `json:"totalSuccessfulResolutions" bson:"totalSuccessfulResolutions"`
	IssuePatterns        []IssuePattern       `json:"issuePatterns" bson:"issuePatterns"`
	SuccessfulStrategies []SuccessfulStrategy `json:"successfulStrategies" bson:"successfulStrategies"`
	SubjectsTaught       []string             `json:"subjectsTaught" bson:"subjectsTaught"`
	SubjectIssueCount    map[string]int       `json:"subjectIssueCount" bson:"subjectIssueCount"`
	CreatedAt            time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// RecordSOS counts a new request against the teacher's history
func (m *ClassroomMemory) RecordSOS(subject string, issue IssueCategory) {
	m.TotalSOSRequests++

	if subject != "" {
		taught := false
		for _, s := range m.SubjectsTaught {
			if s == subject {
				taught = true
				break
			}
		}
		if !taught {
			m.SubjectsTaught = append(m.SubjectsTaught, subject)
		}
		if m.SubjectIssueCount == nil {
			m.SubjectIssueCount = make(map[string]int)
		}
		m.SubjectIssueCount[subject]++
	}

	if issue != "" {
		for i := range m.IssuePatterns {
			if m.IssuePatterns[i].IssueType == issue && m.IssuePatterns[i].Subject == subject {
				m.IssuePatterns[i].OccurrenceCount++
				m.IssuePatterns[i].LastOccurred = time.Now()
				m.UpdatedAt = time.Now()
				return
			}
		}
		m.IssuePatterns = append(m.IssuePatterns, IssuePattern{
			IssueType:       issue,
			Subject:         subject,
			OccurrenceCount: 1,
			LastOccurred:    time.Now(),
		})
	}
	m.UpdatedAt = time.Now()
}

// RecordStrategy stores (or re-counts) a playbook the teacher said worked
func (m *ClassroomMemory) RecordStrategy(playbookID, summary, subject, topic string, rating int) {
	m.TotalResolutions++

	for i := range m.SuccessfulStrategies {
		if m.SuccessfulStrategies[i].PlaybookID == playbookID {
			m.SuccessfulStrategies[i].UsedCount++
			m.SuccessfulStrategies[i].LastUsed = time.Now()
			m.UpdatedAt = time.Now()
			return
		}
	}

	m.SuccessfulStrategies = append(m.SuccessfulStrategies, SuccessfulStrategy{
		PlaybookID: playbookID,
		Summary:    summary,
		Subject:    subject,
		Topic:      topic,
		Rating:     rating,
		UsedCount:  1,
		LastUsed:   time.Now(),
	})
	m.UpdatedAt = time.Now()
}

// TopIssues returns the most frequent issue patterns, highest count first
func (m *ClassroomMemory) TopIssues(limit int) []IssuePattern {
	patterns := make([]IssuePattern, len(m.IssuePatterns))
	copy(patterns, m.IssuePatterns)
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].OccurrenceCount > patterns[j].OccurrenceCount
	})
	if len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns
}

// BestStrategies returns the highest-rated strategies, rating then use count
func (m *ClassroomMemory) BestStrategies(limit int) []SuccessfulStrategy {
	strategies := make([]SuccessfulStrategy, len(m.SuccessfulStrategies))
	copy(strategies, m.SuccessfulStrategies)
	sort.SliceStable(strategies, func(i, j int) bool {
		if strategies[i].Rating != strategies[j].Rating {
			return strategies[i].Rating > strategies[j].Rating
		}
		return strategies[i].UsedCount > strategies[j].UsedCount
	})
	if len(strategies) > limit {
		strategies = strategies[:limit]
	}
	return strategies
}
