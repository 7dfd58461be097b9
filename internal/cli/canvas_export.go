package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/canvas"
	"github.com/contentgrid/canvas-export/internal/config"
	"github.com/contentgrid/canvas-export/internal/database"
	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/exporters"
	"github.com/contentgrid/canvas-export/internal/parser"
	"github.com/contentgrid/canvas-export/internal/sanitize"
)

// CanvasExportCommand runs one synchronous export pass from the terminal.
type CanvasExportCommand struct {
	BaseURL      string
	Token        string
	CourseIDs    string
	DatabasePath string
	Verbose      bool
}

// NewCanvasExportCommand creates a new CanvasExportCommand.
func NewCanvasExportCommand() *CanvasExportCommand {
	return &CanvasExportCommand{}
}

// ParseFlags parses command line flags. Unset flags fall back to the
// environment configuration.
func (cmd *CanvasExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.BaseURL, "base-url", "", "Canvas API root, e.g. https://canvas.example.edu/api (default: CANVAS_BASE_URL)")
	fs.StringVar(&cmd.Token, "token", "", "Canvas API token (default: CANVAS_API_TOKEN)")
	fs.StringVar(&cmd.CourseIDs, "course-ids", "", "Comma-separated course ids to export (default: CANVAS_COURSE_IDS)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the export database (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run one export pass against the Canvas API.\n\n")
		fmt.Fprintf(os.Stderr, "This command:\n")
		fmt.Fprintf(os.Stderr, "  1. Validates the Canvas API token\n")
		fmt.Fprintf(os.Stderr, "  2. Fetches each course with its pages and quizzes\n")
		fmt.Fprintf(os.Stderr, "  3. Maps everything into assets and collections\n")
		fmt.Fprintf(os.Stderr, "  4. Persists the export result and prints a summary\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -course-ids 5013\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -course-ids 5013,5014 -db ./exports.db -verbose\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the export command.
func (cmd *CanvasExportCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.BaseURL == "" {
		cmd.BaseURL = cfg.Canvas.BaseURL
	}
	if cmd.Token == "" {
		cmd.Token = cfg.Canvas.Token
	}
	if cmd.DatabasePath == "" {
		cmd.DatabasePath = cfg.Database.Path
	}

	courseIDs := cfg.Canvas.CourseIDs
	if cmd.CourseIDs != "" {
		courseIDs = config.ParseCourseIDs(cmd.CourseIDs)
	}

	if cmd.BaseURL == "" || cmd.Token == "" {
		return fmt.Errorf("canvas base URL and token are required (flags or CANVAS_BASE_URL/CANVAS_API_TOKEN)")
	}
	if len(courseIDs) == 0 {
		return fmt.Errorf("no course ids given (use -course-ids or CANVAS_COURSE_IDS)")
	}

	logger, err := newLogger(cmd.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Canvas Export\n")
	fmt.Printf("  API:      %s\n", cmd.BaseURL)
	fmt.Printf("  Courses:  %v\n", courseIDs)
	fmt.Printf("  Database: %s\n", absDBPath)

	client := canvas.NewClient(cmd.BaseURL, cmd.Token)

	ctx := context.Background()
	if err := client.ValidateSelf(ctx); err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}

	source := entities.ContentSource{
		UID:     cfg.Canvas.SourceUID,
		Name:    cfg.Canvas.Name,
		BaseURL: cmd.BaseURL,
	}
	courseParser := parser.NewCourseParser(client, sanitize.NewHTMLStripper(), source, logger)
	service := exporters.NewService(courseParser, db, db, source.Name, logger)

	report, runErr := service.Run(ctx, courseIDs)
	if runErr != nil {
		fmt.Printf("\nExport aborted (run %d, status %s): %v\n", report.RunID, report.Status, runErr)
		if report.Collections > 0 {
			fmt.Printf("Partial result kept: %d assets, %d collections\n", report.Assets, report.Collections)
		}
		return runErr
	}

	fmt.Printf("\nExport complete: run %d, %d assets, %d collections\n",
		report.RunID, report.Assets, report.Collections)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}
