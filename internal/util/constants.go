package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	NotifyEmail = "email"
	NotifyLog   = "log"
)

const (
	RoleParticipant = "participant"
	RoleOperator    = "operator"
)

const (
	DefaultTestTitle = "Untitled test"
	DefaultListLimit = 20
	MaxListLimit     = 100
	SubmissionSep    = "*"
)

const (
	MimeHTML = "text/html; charset=utf-8"
	MimeCSV  = "text/csv; charset=utf-8"
)
