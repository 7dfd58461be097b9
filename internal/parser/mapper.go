package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contentgrid/canvas-export/internal/canvas"
	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/sanitize"
)

// Description placeholders used when Canvas returns an empty title/description.
const (
	placeholderPageDescription = "Canvas Page"
	placeholderQuizDescription = "Canvas Quiz"
)

// AssetMapper converts raw Canvas pages and quizzes into export assets.
// Each mapped asset gets a freshly generated uid; the Canvas id is kept
// only for citation purposes.
type AssetMapper struct {
	source    entities.ContentSource
	sanitizer sanitize.Sanitizer
	newUID    func() string
}

// NewAssetMapper creates a mapper for the given content source.
func NewAssetMapper(source entities.ContentSource, sanitizer sanitize.Sanitizer) *AssetMapper {
	return &AssetMapper{
		source:    source,
		sanitizer: sanitizer,
		newUID:    uuid.NewString,
	}
}

// MapPage converts one raw page (with its body already merged in) into an
// Asset. The page body is sanitized into search text; the raw body is kept
// verbatim as the original content and as a non-default html embed.
func (m *AssetMapper) MapPage(page canvas.RawPage, courseID int64) (entities.Asset, error) {
	if page.PageID == nil {
		return entities.Asset{}, &MalformedRecordError{
			Resource: "page",
			CourseID: courseID,
			ItemID:   page.URL,
			Field:    "page_id",
		}
	}

	creator := entities.UnknownCreator
	if page.LastEditedBy != nil && page.LastEditedBy.DisplayName != "" {
		creator = page.LastEditedBy.DisplayName
	}

	searchText := ""
	if page.Body != "" {
		searchText = m.sanitizer.Strip(page.Body)
	}

	embeds := []entities.ContentEmbed{
		{
			Data:      m.pageAPIURL(courseID, *page.PageID),
			IsDefault: true,
			Protocol:  entities.ProtocolCanvasPage,
		},
	}
	if page.Body != "" {
		embeds = append(embeds, entities.ContentEmbed{
			Data:      page.Body,
			IsDefault: false,
			Protocol:  entities.ProtocolHTML,
		})
	}

	description := page.Title
	if description == "" {
		description = placeholderPageDescription
	}

	return entities.Asset{
		UID:             m.newUID(),
		CanvasID:        *page.PageID,
		CitationURL:     page.HTMLURL,
		ContentCreator:  creator,
		ContentType:     entities.ContentTypeHTML,
		Graded:          false,
		Title:           page.Title,
		Description:     description,
		PublishDate:     page.UpdatedAt,
		ContentEmbed:    embeds,
		SearchText:      searchText,
		OriginalContent: page.Body,
	}, nil
}

// MapQuiz converts one raw quiz (with its questions already merged in) into
// an Asset. Quizzes are always graded; the full raw record including
// questions is serialized as the original content.
func (m *AssetMapper) MapQuiz(quiz canvas.RawQuiz, courseID int64) (entities.Asset, error) {
	if quiz.ID == nil {
		return entities.Asset{}, &MalformedRecordError{
			Resource: "quiz",
			CourseID: courseID,
			ItemID:   quiz.Title,
			Field:    "id",
		}
	}

	original, err := json.Marshal(quiz)
	if err != nil {
		return entities.Asset{}, fmt.Errorf("serialize quiz %d: %w", *quiz.ID, err)
	}

	description := quiz.Description
	if description == "" {
		description = placeholderQuizDescription
	}

	return entities.Asset{
		UID:            m.newUID(),
		CanvasID:       *quiz.ID,
		CitationURL:    quiz.HTMLURL,
		ContentCreator: entities.UnknownCreator,
		ContentType:    entities.ContentTypeProblem,
		Graded:         true,
		Title:          quiz.Title,
		Description:    description,
		PublishDate:    nil,
		ContentEmbed: []entities.ContentEmbed{
			{
				Data:      m.quizAPIURL(courseID, *quiz.ID),
				IsDefault: true,
				Protocol:  entities.ProtocolCanvasQuiz,
			},
		},
		SearchText:      quizSearchText(quiz),
		OriginalContent: string(original),
	}, nil
}

func (m *AssetMapper) pageAPIURL(courseID, pageID int64) string {
	return fmt.Sprintf("%s/v1/courses/%d/pages/%d", m.source.BaseURL, courseID, pageID)
}

func (m *AssetMapper) quizAPIURL(courseID, quizID int64) string {
	return fmt.Sprintf("%s/v1/courses/%d/quizzes/%d", m.source.BaseURL, courseID, quizID)
}

// quizSearchText flattens a quiz into newline-joined text: title,
// description, then each question's text followed by each of its answers'
// texts, in remote order. Missing fields contribute an empty line rather
// than being skipped, so the line structure is stable.
func quizSearchText(quiz canvas.RawQuiz) string {
	var b strings.Builder
	b.WriteString(quiz.Title)
	b.WriteString("\n")
	b.WriteString(quiz.Description)
	for _, question := range quiz.Questions {
		b.WriteString("\n")
		b.WriteString(question.QuestionText)
		for _, answer := range question.Answers {
			b.WriteString("\n")
			b.WriteString(answer.Text)
		}
	}
	return b.String()
}
