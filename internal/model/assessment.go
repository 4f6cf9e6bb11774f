package model

import "time"

type AssessmentStatus string

const (
	AssessmentCompleted  AssessmentStatus = "Completed"
	AssessmentInProgress AssessmentStatus = "In Progress"
	AssessmentOverdue    AssessmentStatus = "Overdue"
)

type Assessment struct {
	ID             string           `gorm:"primaryKey;size:64" json:"id"`
	Name           string           `gorm:"size:256;not null" json:"name"`
	CompletionDate time.Time        `gorm:"not null;index" json:"completion_date"`
	Status         AssessmentStatus `gorm:"size:32;not null;index" json:"status"`
	SheetURL       string           `gorm:"size:512" json:"sheet_url"`
}
