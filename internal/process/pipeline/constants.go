package pipeline

// Log field constants
const (
	LogFieldCorrelationID = "correlation_id"
	LogFieldRowID         = "row_id"
	LogFieldIdeaID        = "idea_id"
	LogFieldOutcome       = "outcome"
	LogFieldStatus        = "status"
	LogFieldCount         = "count"
)

// Outcome is the terminal state a row reached in one invocation.
type Outcome string

const (
	OutcomeClassifierReject  Outcome = "classifier_reject"
	OutcomeSolvabilityReject Outcome = "solvability_reject"
	OutcomeSolvabilityError  Outcome = "solvability_error"
	OutcomeSynthesisError    Outcome = "synthesis_error"
	OutcomePersistError      Outcome = "persist_error"
	OutcomeSuccess           Outcome = "success"
	OutcomePanic             Outcome = "panic"
)

// Outcomes lists every terminal outcome in report order.
var Outcomes = []Outcome{
	OutcomeClassifierReject,
	OutcomeSolvabilityReject,
	OutcomeSolvabilityError,
	OutcomeSynthesisError,
	OutcomePersistError,
	OutcomeSuccess,
	OutcomePanic,
}
