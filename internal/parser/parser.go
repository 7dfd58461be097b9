// Package parser turns Canvas courses into a normalized export result:
// one asset per page or quiz, one collection per course, with freshly
// generated uids threading the cross-references.
package parser

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/canvas"
	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/sanitize"
)

// ErrNoCourses is returned when Parse is called with an empty course list.
var ErrNoCourses = errors.New("no course ids given")

// CanvasClient is the slice of the Canvas API this parser consumes. List
// operations must exhaust pagination before returning.
type CanvasClient interface {
	GetCourse(ctx context.Context, courseID int64) (*canvas.RawCourse, error)
	ListPages(ctx context.Context, courseID int64) ([]canvas.RawPage, error)
	GetPageBody(ctx context.Context, courseID int64, pageSlug string) (string, error)
	ListQuizzes(ctx context.Context, courseID int64) ([]canvas.RawQuiz, error)
	ListQuizQuestions(ctx context.Context, courseID, quizID int64) ([]canvas.RawQuestion, error)
}

// CourseParser orchestrates one parse pass: fetch each requested course,
// map its pages and quizzes into assets, build the course collection, and
// accumulate everything into a single export result.
type CourseParser struct {
	client      CanvasClient
	assets      *AssetMapper
	collections *CollectionMapper
	source      entities.ContentSource
	logger      *zap.Logger
}

// NewCourseParser wires a parser for one content source.
func NewCourseParser(client CanvasClient, sanitizer sanitize.Sanitizer,
	source entities.ContentSource, logger *zap.Logger) *CourseParser {
	return &CourseParser{
		client:      client,
		assets:      NewAssetMapper(source, sanitizer),
		collections: NewCollectionMapper(source),
		source:      source,
		logger:      logger,
	}
}

// Parse processes the given courses strictly in order. The first failing
// course aborts the run; the returned result still carries everything
// committed from the courses completed before it, so callers may persist a
// partial export alongside the error. A course commits atomically: either
// all of its assets plus its collection land in the result, or none do.
func (p *CourseParser) Parse(ctx context.Context, courseIDs []int64) (*entities.ExportResult, error) {
	if len(courseIDs) == 0 {
		return nil, ErrNoCourses
	}

	result := &entities.ExportResult{
		ContentSource: p.source,
		Assets:        []entities.Asset{},
		Collections:   []entities.Collection{},
	}

	for _, courseID := range courseIDs {
		if err := p.parseCourse(ctx, courseID, result); err != nil {
			return result, fmt.Errorf("course %d: %w", courseID, err)
		}
	}

	p.logger.Info("parse pass complete",
		zap.Int("courses", len(courseIDs)),
		zap.Int("assets", len(result.Assets)),
		zap.Int("collections", len(result.Collections)))

	return result, nil
}

// parseCourse runs one course through its states: fetch the course record,
// fetch and map pages, fetch and map quizzes, map the collection, commit.
// Nothing is appended to the result until every item mapped.
func (p *CourseParser) parseCourse(ctx context.Context, courseID int64, result *entities.ExportResult) error {
	course, err := p.client.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	pageAssets, err := p.pageAssets(ctx, courseID)
	if err != nil {
		return err
	}

	quizAssets, err := p.quizAssets(ctx, courseID)
	if err != nil {
		return err
	}

	courseAssets := append(pageAssets, quizAssets...)
	assetUIDs := make([]string, len(courseAssets))
	for i, asset := range courseAssets {
		assetUIDs[i] = asset.UID
	}

	collection, err := p.collections.MapCourse(course, assetUIDs)
	if err != nil {
		return err
	}

	result.Assets = append(result.Assets, courseAssets...)
	result.Collections = append(result.Collections, collection)

	p.logger.Info("course committed",
		zap.Int64("course_id", courseID),
		zap.String("collection_uid", collection.UID),
		zap.Int("pages", len(pageAssets)),
		zap.Int("quizzes", len(quizAssets)))

	return nil
}

// pageAssets lists the course's pages, completes each with its body from
// the detail endpoint (the list endpoint returns metadata only) and maps
// them in remote order.
func (p *CourseParser) pageAssets(ctx context.Context, courseID int64) ([]entities.Asset, error) {
	pages, err := p.client.ListPages(ctx, courseID)
	if err != nil {
		return nil, err
	}

	assets := make([]entities.Asset, 0, len(pages))
	for _, page := range pages {
		body, err := p.client.GetPageBody(ctx, courseID, page.URL)
		if err != nil {
			return nil, err
		}
		page.Body = body

		asset, err := p.assets.MapPage(page, courseID)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// quizAssets lists the course's quizzes, completes each with its questions
// and maps them in remote order.
func (p *CourseParser) quizAssets(ctx context.Context, courseID int64) ([]entities.Asset, error) {
	quizzes, err := p.client.ListQuizzes(ctx, courseID)
	if err != nil {
		return nil, err
	}

	assets := make([]entities.Asset, 0, len(quizzes))
	for _, quiz := range quizzes {
		if quiz.ID == nil {
			return nil, &MalformedRecordError{
				Resource: "quiz",
				CourseID: courseID,
				ItemID:   quiz.Title,
				Field:    "id",
			}
		}

		questions, err := p.client.ListQuizQuestions(ctx, courseID, *quiz.ID)
		if err != nil {
			return nil, err
		}
		quiz.Questions = questions

		asset, err := p.assets.MapQuiz(quiz, courseID)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
