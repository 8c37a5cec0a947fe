package dto

import "time"

// GenerateRequest starts a flight generation run. A missing horizon means "now".
type GenerateRequest struct {
	HorizonStart *time.Time `json:"horizonStart"`
}

// GenerationRunStatus tracks a run through the background queue.
type GenerationRunStatus string

const (
	GenerationQueued    GenerationRunStatus = "QUEUED"
	GenerationRunning   GenerationRunStatus = "RUNNING"
	GenerationSucceeded GenerationRunStatus = "SUCCEEDED"
	GenerationFailed    GenerationRunStatus = "FAILED"
)

// GenerationStage names one step of the generation chain.
type GenerationStage string

const (
	StagePrepare       GenerationStage = "prepare"
	StageCheckAirports GenerationStage = "check_airports"
	StageGenerate      GenerationStage = "generate"
	StageAssignCrew    GenerationStage = "assign_crew"
	StageCommit        GenerationStage = "commit"
)

// GenerationRunResponse acknowledges a queued run.
type GenerationRunResponse struct {
	RunID  string              `json:"runId"`
	Status GenerationRunStatus `json:"status"`
}

// GenerationReport summarises a generation run.
type GenerationReport struct {
	RunID              string              `json:"runId"`
	Status             GenerationRunStatus `json:"status"`
	HorizonStart       time.Time           `json:"horizonStart"`
	Templates          int                 `json:"templates"`
	Occurrences        int                 `json:"occurrences"`
	Attempts           int                 `json:"attempts"`
	SuccessfulAttempts int                 `json:"successfulAttempts"`
	ChosenAttempt      *int                `json:"chosenAttempt,omitempty"`
	CrewChanges        int                 `json:"crewChanges"`
	FlightsDeleted     int64               `json:"flightsDeleted"`
	FlightsCommitted   int                 `json:"flightsCommitted"`
	FailedStage        GenerationStage     `json:"failedStage,omitempty"`
	Failure            string              `json:"failure,omitempty"`
	RequestedAt        time.Time           `json:"requestedAt"`
	StartedAt          *time.Time          `json:"startedAt,omitempty"`
	FinishedAt         *time.Time          `json:"finishedAt,omitempty"`
}
