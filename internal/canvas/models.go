package canvas

import "time"

// Raw records mirror the Canvas REST resources, limited to the fields this
// service consumes. Required identifiers are pointers so a missing field can
// be told apart from a zero value; everything else decodes to its zero value
// when absent.

// RawCourse is a course record from GET /v1/courses/{id}.
type RawCourse struct {
	ID           *int64   `json:"id"`
	Name         string   `json:"name"`
	CourseCode   string   `json:"course_code"`
	SyllabusBody string   `json:"syllabus_body"`
	Term         *RawTerm `json:"term"`
}

// RawTerm is the enrollment term nested in a course response.
type RawTerm struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	StartAt *time.Time `json:"start_at"`
}

// RawEditor is the nested user who last edited a page.
type RawEditor struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// RawPage is a wiki page. The list endpoint returns metadata only; Body is
// filled in from the per-page detail fetch before mapping.
type RawPage struct {
	PageID       *int64     `json:"page_id"`
	URL          string     `json:"url"` // slug used by the detail endpoint
	Title        string     `json:"title"`
	HTMLURL      string     `json:"html_url"`
	Published    bool       `json:"published"`
	UpdatedAt    *time.Time `json:"updated_at"`
	LastEditedBy *RawEditor `json:"last_edited_by"`
	Body         string     `json:"body"`
}

// RawQuiz is a quiz. Questions are fetched from the questions endpoint and
// merged in before mapping.
type RawQuiz struct {
	ID          *int64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	HTMLURL     string        `json:"html_url"`
	Questions   []RawQuestion `json:"questions"`
}

// RawQuestion is one quiz question with its answers.
type RawQuestion struct {
	ID           int64       `json:"id"`
	QuestionName string      `json:"question_name"`
	QuestionText string      `json:"question_text"`
	Answers      []RawAnswer `json:"answers"`
}

// RawAnswer is one possible answer of a quiz question.
type RawAnswer struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}
