package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SOSStatus string

const (
	SOSPending    SOSStatus = "pending"
	SOSProcessing SOSStatus = "processing"
	SOSResolved   SOSStatus = "resolved"
	SOSFailed     SOSStatus = "failed"
)

type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
)

// IssueCategory classifies the type of classroom problem
type IssueCategory string

const (
	IssueConceptConfusion   IssueCategory = "concept_confusion"
	IssueBehaviorManagement IssueCategory = "behavior_management"
	IssueEngagementDrop     IssueCategory = "engagement_drop"
	IssueActivityStuck      IssueCategory = "activity_stuck"
	IssueDifferentiation    IssueCategory = "differentiation"
	IssueResourceMissing    IssueCategory = "resource_missing"
	IssueTimeManagement     IssueCategory = "time_management"
	IssueOther              IssueCategory = "other"
)

type InputType string

const (
	InputText  InputType = "text"
	InputVoice InputType = "voice"
)

// ClassifiedContext holds the structured attributes inferred from (or supplied
// with) a teacher's raw problem description. StudentCount 0 means unknown.
type ClassifiedContext struct {
	Subject           string        `json:"subject,omitempty" bson:"subject,omitempty"`
	Grade             string        `json:"grade,omitempty" bson:"grade,omitempty"`
	Topic             string        `json:"topic,omitempty" bson:"topic,omitempty"`
	IssueCategory     IssueCategory `json:"issueCategory" bson:"issueCategory"`
	Urgency           UrgencyLevel  `json:"urgency" bson:"urgency"`
	StudentCount      int           `json:"studentCount,omitempty" bson:"studentCount,omitempty"`
	SpecificChallenge string        `json:"specificChallenge,omitempty" bson:"specificChallenge,omitempty"`
}

// SOSFeedback records how useful a delivered playbook was
type SOSFeedback struct {
	Worked      bool      `json:"worked" bson:"worked"`
	Rating      int       `json:"rating" bson:"rating"` // 1-5
	Text        string    `json:"text,omitempty" bson:"text,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// SOSRequest is a teacher's call for help and its processing lifecycle.
// Status moves pending -> processing -> resolved|failed and never back.
type SOSRequest struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TeacherID     string             `json:"teacherId" bson:"teacherId"`
	RawInput      string             `json:"rawInput" bson:"rawInput"` // 5-2000 chars
	InputType     InputType          `json:"inputType" bson:"inputType"`
	InputLanguage string             `json:"inputLanguage" bson:"inputLanguage"` // en, hi, kn
	Context       ClassifiedContext  `json:"context" bson:"context"`
	Status        SOSStatus          `json:"status" bson:"status"`
	PlaybookID    string             `json:"playbookId,omitempty" bson:"playbookId,omitempty"`
	FromCache     bool               `json:"fromCache" bson:"fromCache"`
	Feedback      *SOSFeedback       `json:"feedback,omitempty" bson:"feedback,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	StartedAt     *time.Time         `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	ProcessingMS  int64              `json:"processingTimeMs,omitempty" bson:"processingTimeMs,omitempty"`
}
