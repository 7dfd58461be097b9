package config

const (
	// DefaultDatabasePath is the default path for the export database
	DefaultDatabasePath = "./canvas-export.db"
)
