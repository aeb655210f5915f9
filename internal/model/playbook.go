package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// RecoveryStep is one timed action inside a playbook
type RecoveryStep struct {
	StepNumber      int    `json:"stepNumber" bson:"stepNumber"`
	Action          string `json:"action" bson:"action"`
	DurationMinutes int    `json:"durationMinutes" bson:"durationMinutes"`
}

// VideoResource is a linked educational video (or search link)
type VideoResource struct {
	Title       string `json:"title" bson:"title"`
	URL         string `json:"url" bson:"url"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// TeachingResource is a non-video reference (DIKSHA module, textbook, website)
type TeachingResource struct {
	Title        string `json:"title" bson:"title"`
	URL          string `json:"url,omitempty" bson:"url,omitempty"`
	ResourceType string `json:"resourceType" bson:"resourceType"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
}

// Playbook is the structured teaching-rescue strategy delivered to a teacher
type Playbook struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SOSRequestID      string             `json:"sosRequestId" bson:"sosRequestId"`
	Title             string             `json:"title" bson:"title"`
	Summary           string             `json:"summary" bson:"summary"`
	ImmediateActions  []string           `json:"immediateActions" bson:"immediateActions"`
	RecoverySteps     []RecoveryStep     `json:"recoverySteps" bson:"recoverySteps"`
	Alternatives      []string           `json:"alternatives" bson:"alternatives"`
	SuccessIndicators []string           `json:"successIndicators" bson:"successIndicators"`
	YoutubeVideos     []VideoResource    `json:"youtubeVideos" bson:"youtubeVideos"`
	TeachingResources []TeachingResource `json:"teachingResources" bson:"teachingResources"`
	TeachingTips      []string           `json:"teachingTips" bson:"teachingTips"`
	NCERTReference    string             `json:"ncertReference,omitempty" bson:"ncertReference,omitempty"`
	EstimatedMinutes  int                `json:"estimatedTimeMinutes" bson:"estimatedTimeMinutes"` // 1-45
	Difficulty        DifficultyLevel    `json:"difficultyLevel" bson:"difficultyLevel"`
	ModelUsed         string             `json:"modelUsed,omitempty" bson:"modelUsed,omitempty"`
	Language          string             `json:"language" bson:"language"`
	TimesViewed       int                `json:"timesViewed" bson:"timesViewed"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
}
