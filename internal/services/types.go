package services

// Store paths. The layout is shared with the voting client and must not
// drift: the console only observes and moderates data the client writes.
const (
	PathRegisteredStudents = "registeredStudents"
	PathStudentActivity    = "students"
	PathCategoryVotes      = "categoryVotes"
	PathUserVotes          = "userVotes"
	PathVotingLocked       = "settings/votingLocked"
	PathAdminPasswordHash  = "settings/adminPasswordHash"
	PathAdminLogs          = "adminLogs"
)

// Activity status values written by the voting client.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusNever   = "never"
)

// Audit log action tags.
const (
	ActionLogin           = "login"
	ActionLoginFailed     = "login_failed"
	ActionVotingLocked    = "voting_locked"
	ActionVotingUnlocked  = "voting_unlocked"
	ActionVotesReset      = "votes_reset"
	ActionResultsExported = "results_exported"
	ActionPasswordChange  = "password_change_attempted"
)

// RegisteredStudent lives at registeredStudents/<id>. The id is the stable
// key; email is optional.
type RegisteredStudent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	HasVoted bool   `json:"hasVoted"`
}

// StudentActivity lives at students/<activityKey>. The key is the student's
// email with dots replaced by commas, or an opaque value chosen by the
// client; it is not guaranteed to match any RegisteredStudent id.
type StudentActivity struct {
	Name         string `json:"name,omitempty"`
	Status       string `json:"status"`
	VotesCount   int    `json:"votesCount"`
	LastActivity int64  `json:"lastActivity"`
}

// CombinedStudentData is a registration joined with its best-effort activity
// match. Produced only by Reconcile, never persisted.
type CombinedStudentData struct {
	RegisteredStudent
	Activity StudentActivity `json:"activity"`
}

// AllVotes maps category name -> nominee name -> tally.
type AllVotes map[string]map[string]int

// Stats are derived wholesale from the vote and activity snapshots.
type Stats struct {
	TotalVotes  int `json:"totalVotes"`
	TotalVoters int `json:"totalVoters"`
	FreeVotes   int `json:"freeVotes"`
	PaidVotes   int `json:"paidVotes"`
}

// SecurityLog is one audit entry read back from adminLogs/<key>.
type SecurityLog struct {
	Key       string `json:"key"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Success   bool   `json:"success"`
	Attempts  int    `json:"attempts,omitempty"`
}

// DashboardState is the session-visible view consumed by the presentation
// layer.
type DashboardState struct {
	Stats        Stats                 `json:"stats"`
	Students     []CombinedStudentData `json:"students"`
	AllVotes     AllVotes              `json:"allVotes"`
	VotingLocked bool                  `json:"votingLocked"`
	SecurityLogs []SecurityLog         `json:"securityLogs"`
}

// Category is one award category from the static event configuration.
type Category struct {
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Nominees []string `json:"nominees"`
}
