package entities

import (
	"time"
)

// Content types assigned to exported assets and collections.
const (
	ContentTypeHTML    = "html"    // Canvas wiki pages
	ContentTypeProblem = "problem" // Canvas quizzes
	ContentTypeCourse  = "course"
)

// Embed protocols. Every asset carries exactly one default embed pointing
// at the canonical Canvas API URL; pages with a body carry an extra html embed.
const (
	ProtocolCanvasPage = "canvas_page"
	ProtocolCanvasQuiz = "canvas_quiz"
	ProtocolHTML       = "html"
)

// UnknownCreator is used when Canvas does not report who authored an item.
const UnknownCreator = "Unknown"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusPartial   RunStatus = "partial" // some courses committed before the run aborted
)

// ContentSource identifies which Canvas account/integration an export run
// belongs to. BaseURL is the API root, e.g. "https://canvas.example.edu/api".
type ContentSource struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// ContentEmbed is one embeddable representation of an asset.
type ContentEmbed struct {
	Data      string `json:"data"`
	IsDefault bool   `json:"is_default"`
	Protocol  string `json:"protocol"`
}

// Asset is a single exportable piece of course content: one Canvas page or
// one Canvas quiz. UID is generated at mapping time and is the identity used
// by collections; CanvasID only preserves the remote id for citations.
type Asset struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	ExportRunID uint   `gorm:"index" json:"-"`
	UID         string `gorm:"uniqueIndex;size:36" json:"uid"`
	CanvasID    int64  `gorm:"index" json:"canvas_id"`

	CitationURL    string     `gorm:"size:2048" json:"citation_url"`
	ContentCreator string     `gorm:"size:256" json:"content_creator"`
	ContentType    string     `gorm:"size:20" json:"content_type"`
	Graded         bool       `json:"graded"`
	Title          string     `gorm:"size:512" json:"title"`
	Description    string     `gorm:"size:1024" json:"description"`
	PublishDate    *time.Time `json:"publish_date"`

	ContentEmbed    []ContentEmbed `gorm:"serializer:json" json:"content_embed"`
	SearchText      string         `gorm:"type:text" json:"search_text"`
	OriginalContent string         `gorm:"type:text" json:"original_content"`

	CreatedAt time.Time `json:"created_at"`
}

// DefaultEmbed returns the default (canonical API URL) embed entry.
func (a Asset) DefaultEmbed() *ContentEmbed {
	for i := range a.ContentEmbed {
		if a.ContentEmbed[i].IsDefault {
			return &a.ContentEmbed[i]
		}
	}
	return nil
}

// Collection represents one Canvas course grouping the assets extracted
// from it. AssetUIDs preserves processing order: all page assets first,
// then all quiz assets, each in the order Canvas returned them.
type Collection struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	ExportRunID uint   `gorm:"index" json:"-"`
	UID         string `gorm:"uniqueIndex;size:36" json:"uid"`
	CanvasID    int64  `gorm:"index" json:"canvas_id"`

	CitationURL    string    `gorm:"size:2048" json:"citation_url"`
	ContentCreator string    `gorm:"size:256" json:"content_creator"`
	ContentType    string    `gorm:"size:20" json:"content_type"`
	Ordered        bool      `json:"ordered"`
	Title          string    `gorm:"size:512" json:"title"`
	Description    string    `gorm:"size:1024" json:"description"`
	PublishDate    time.Time `json:"publish_date"`

	AssetUIDs         []string `gorm:"serializer:json" json:"asset_uids"`
	CollectionUIDs    []string `gorm:"serializer:json" json:"collection_uids"`
	ParentCollections []string `gorm:"serializer:json" json:"parent_collections"`

	CreatedAt time.Time `json:"created_at"`
}

// ExportResult is the aggregate produced by one parse invocation. It grows
// monotonically while courses are processed and is handed whole to the sink.
type ExportResult struct {
	ContentSource ContentSource `json:"content_source"`
	Assets        []Asset       `json:"assets"`
	Collections   []Collection  `json:"collections"`
}

// ExportRun records one export invocation for auditing and the API listing.
type ExportRun struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ContentSource string     `gorm:"size:256" json:"content_source"`
	Status        RunStatus  `gorm:"size:20;default:'running'" json:"status"`
	Assets        int        `json:"assets"`
	Collections   int        `json:"collections"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (Asset) TableName() string {
	return "assets"
}

func (Collection) TableName() string {
	return "collections"
}

func (ExportRun) TableName() string {
	return "export_runs"
}
