package parser

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contentgrid/canvas-export/internal/canvas"
	"github.com/contentgrid/canvas-export/internal/entities"
)

// CollectionMapper converts raw Canvas courses into export collections.
type CollectionMapper struct {
	source entities.ContentSource
	newUID func() string
	now    func() time.Time
}

// NewCollectionMapper creates a mapper for the given content source.
func NewCollectionMapper(source entities.ContentSource) *CollectionMapper {
	return &CollectionMapper{
		source: source,
		newUID: uuid.NewString,
		now:    time.Now,
	}
}

// MapCourse converts one raw course into a Collection referencing the given
// asset uids. assetUIDs must already be in processing order (pages first,
// then quizzes) and every uid must belong to an asset committed to the same
// export result. The publish date is the course term's start date, or the
// mapping time when the term carries none.
func (m *CollectionMapper) MapCourse(course *canvas.RawCourse, assetUIDs []string) (entities.Collection, error) {
	if course.ID == nil {
		return entities.Collection{}, &MalformedRecordError{
			Resource: "course",
			ItemID:   course.Name,
			Field:    "id",
		}
	}

	publishDate := m.now()
	if course.Term != nil && course.Term.StartAt != nil {
		publishDate = *course.Term.StartAt
	}

	uids := make([]string, len(assetUIDs))
	copy(uids, assetUIDs)

	return entities.Collection{
		UID:               m.newUID(),
		CanvasID:          *course.ID,
		CitationURL:       fmt.Sprintf("%s/courses/%d", m.source.BaseURL, *course.ID),
		ContentCreator:    entities.UnknownCreator,
		ContentType:       entities.ContentTypeCourse,
		Ordered:           false,
		Title:             course.Name,
		Description:       course.Name,
		PublishDate:       publishDate,
		AssetUIDs:         uids,
		CollectionUIDs:    []string{},
		ParentCollections: []string{},
	}, nil
}
