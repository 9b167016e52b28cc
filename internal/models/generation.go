package models

import (
	"time"
)

// Generation is a stored successful prompt generation
type Generation struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Keywords         string    `gorm:"type:text" json:"keywords"`
	NegativeKeywords string    `gorm:"type:text" json:"negative_keywords"`
	Style            string    `gorm:"size:128;index" json:"style,omitempty"`
	PositivePrompt   string    `gorm:"type:text" json:"positive_prompt"`
	NegativePrompt   string    `gorm:"type:text" json:"negative_prompt"`
	SamplingMethod   string    `gorm:"size:64" json:"sampling_method"`
	Scheduler        string    `gorm:"size:64" json:"scheduler"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}
