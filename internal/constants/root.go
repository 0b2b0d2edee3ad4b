package constants

const (
	AppName            = "rosterfill"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/rosterfill/rosterfill.db"
	Version            = "v0.3.0"

	// EnvDBConnection overrides --db when set.
	EnvDBConnection = "ROSTERFILL_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "rosterfill-"
	BackupFileSuffix = ".db"

	// Roster status values
	RosterStatusDraft     = "draft"
	RosterStatusProcessed = "processed"
)
