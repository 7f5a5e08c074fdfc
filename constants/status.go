package constants

// Stage is the name of one pipeline stage. The orchestrator runs them in Stages order.
type Stage string

const (
	StageSchemaInit Stage = "schema_init"
	StageExtract    Stage = "extract"
	StageTransform  Stage = "transform"
	StageVerify     Stage = "verify"
	StageLoad       Stage = "load"
)

// Stages is the fixed execution order.
var Stages = []Stage{StageSchemaInit, StageExtract, StageTransform, StageVerify, StageLoad}

// StageStatus is the outcome recorded for a stage in a run report.
type StageStatus string

const (
	StageStatusSucceeded StageStatus = "SUCCEEDED"
	StageStatusFailed    StageStatus = "FAILED"
	StageStatusSkipped   StageStatus = "SKIPPED" // upstream stage failed
)

// RejectPolicy decides what happens to records the transformer or loader cannot use.
type RejectPolicy string

const (
	RejectDrop       RejectPolicy = "drop"
	RejectQuarantine RejectPolicy = "quarantine"
)

// Tables is the set of tables the schema initializer creates.
var Tables = []string{"job", "company", "education", "experience", "salary", "location"}
