package ir

// Version constants for the snapshot schema and the application.
const (
	// SchemaVersion is the snapshot schema version.
	SchemaVersion = "1"

	// AppVersion is the teamsplit application version.
	AppVersion = "0.1.0"
)
