package domain

// StageKey identifies one provisioning stage.
type StageKey string

const (
	StageCreateProject     StageKey = "create_project"
	StageAddFirebase       StageKey = "add_firebase"
	StageConfigureAuth     StageKey = "configure_auth"
	StageProvisionDatabase StageKey = "provision_database"
)

// StageOrder is the fixed execution order of the provisioning pipeline.
// Each stage depends on every stage before it.
var StageOrder = []StageKey{
	StageCreateProject,
	StageAddFirebase,
	StageConfigureAuth,
	StageProvisionDatabase,
}

var stageTitles = map[StageKey]string{
	StageCreateProject:     "Create Project",
	StageAddFirebase:       "Add Firebase",
	StageConfigureAuth:     "Configure Auth",
	StageProvisionDatabase: "Provision Database",
}

// Title returns the human-readable stage name.
func (k StageKey) Title() string {
	if t, ok := stageTitles[k]; ok {
		return t
	}
	return string(k)
}

// StageStatus is the lifecycle state of a stage within one run.
type StageStatus string

const (
	StageStatusPending StageStatus = "pending"
	StageStatusRunning StageStatus = "running"
	StageStatusSuccess StageStatus = "success"
	StageStatusFailed  StageStatus = "failed"
)

// IsTerminal reports whether the status can no longer change within a run.
func (s StageStatus) IsTerminal() bool {
	return s == StageStatusSuccess || s == StageStatusFailed
}

// Stage is the observable state of one provisioning stage.
type Stage struct {
	Key     StageKey    `json:"key"`
	Title   string      `json:"title"`
	Status  StageStatus `json:"status"`
	Message string      `json:"message,omitempty"`

	// ErrorKind is set when Status is failed (e.g. "AuthorizationError").
	ErrorKind string `json:"errorKind,omitempty"`
}

// PendingStages returns a fresh stage list in declaration order with every
// stage set to pending.
func PendingStages() []Stage {
	stages := make([]Stage, len(StageOrder))
	for i, key := range StageOrder {
		stages[i] = Stage{Key: key, Title: key.Title(), Status: StageStatusPending}
	}
	return stages
}
