package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the collection database
	DefaultDatabasePath = "./mnemo.db"

	// DefaultInboxDir is the default directory watched for dropped import files
	DefaultInboxDir = "./inbox"
)
