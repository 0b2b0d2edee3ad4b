package constants

const (
	// DateFormat is the layout of roster, requirement and slot dates.
	DateFormat = "2006-01-02"

	// TimestampFormat stamps processed_at and run history rows.
	TimestampFormat = "2006-01-02T15:04:05Z07:00"

	// BackupStampFormat is the UTC timestamp embedded in backup file names.
	BackupStampFormat = "20060102-150405"
)
