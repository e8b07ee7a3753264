package types

type ReportData struct {
	Title       string
	Timestamp   string
	Operation   string
	Project     string
	OperationID string
	Status      string
	StatusClass string
	Error       string
	FailedPhase string
	Duration    string
	Identity    ReportIdentity
	Target      *ReportTarget
	Phases      []ReportPhase
	Artifacts   []ArtifactStatus
	Statistics  ReportStatistics
	HasSkipped  bool
}

type ReportIdentity struct {
	Creator   string
	Slug      string
	OwnerType string
	OwnerName string
	Path      string
}

type ReportTarget struct {
	ProjectID           string
	ProjectCreated      bool
	LegacyEnginePatched bool
}

type ReportPhase struct {
	Name        string
	StatusClass string
}

type ReportStatistics struct {
	TotalArtifacts int
	CreatedCount   int
	SkippedCount   int
	FailedCount    int
	DataSize       string
}

type ArtifactStatus struct {
	Kind        string
	Name        string
	Status      string
	StatusClass string
	Reason      string
}
