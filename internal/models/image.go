package models

import "time"

// Image is a row in dogify_images. Exactly one of ImageURL/StoragePath
// (object-store reference) or InlineData (legacy inline encoding) is
// populated for a readable row.
type Image struct {
	ID                    string
	ImageURL              *string
	StoragePath           *string
	InlineData            *string
	Format                string
	SizeBytes             int64
	Width                 int
	Height                int
	SceneAnalysis         *string
	GenerationPrompt      *string
	ModelUsed             *string
	GenerationTimeSeconds *float64
	UserSession           *string
	UserAgent             *string
	IPAddress             *string
	ShareCount            int
	LastSharedAt          *time.Time
	CreatedAt             time.Time
}

// Stored reports whether the row references object storage; inline rows
// answer false and are decoded on the serving path.
func (i Image) Stored() bool {
	return i.ImageURL != nil && *i.ImageURL != ""
}

// ShareMeta is the slice of an Image the share page needs.
type ShareMeta struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	SceneAnalysis    *string   `json:"sceneAnalysis,omitempty"`
	GenerationPrompt *string   `json:"generationPrompt,omitempty"`
	ModelUsed        *string   `json:"modelUsed,omitempty"`
}
