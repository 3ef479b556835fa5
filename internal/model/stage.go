package model

// WorkflowStage is the position of a visa application in the workflow.
type WorkflowStage string

const (
	StageDocumentsUploaded      WorkflowStage = "documents_uploaded"
	StageAdminVerification      WorkflowStage = "admin_verification"
	StageHospitalLetterVerified WorkflowStage = "hospital_letter_verified"
	StageVisaSupportApproved    WorkflowStage = "visa_support_approved"
	StageSentToEmbassy          WorkflowStage = "sent_to_embassy"
	StageCompleted              WorkflowStage = "completed"
	StageRejected               WorkflowStage = "rejected"
)

// forward lists the happy path in order; rejected sits outside it.
var forward = []WorkflowStage{
	StageDocumentsUploaded,
	StageAdminVerification,
	StageHospitalLetterVerified,
	StageVisaSupportApproved,
	StageSentToEmbassy,
	StageCompleted,
}

// AllStages returns every stage, happy path first.
func AllStages() []WorkflowStage {
	out := make([]WorkflowStage, 0, len(forward)+1)
	out = append(out, forward...)
	return append(out, StageRejected)
}

func (s WorkflowStage) String() string { return string(s) }

// Valid reports whether s is a known stage.
func (s WorkflowStage) Valid() bool {
	if s == StageRejected {
		return true
	}
	for _, f := range forward {
		if f == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s WorkflowStage) IsTerminal() bool {
	return s == StageCompleted || s == StageRejected
}

// Next returns the single forward successor of s.
func (s WorkflowStage) Next() (WorkflowStage, bool) {
	for i, f := range forward {
		if f == s && i+1 < len(forward) {
			return forward[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether from -> to is an edge of the workflow graph.
// Self-transitions are never edges.
func CanTransition(from, to WorkflowStage) bool {
	if !from.Valid() || !to.Valid() || from.IsTerminal() || from == to {
		return false
	}
	if to == StageRejected {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// IsValidWalk reports whether stages, in order, start at the initial stage
// and follow edges of the graph.
func IsValidWalk(stages []WorkflowStage) bool {
	if len(stages) == 0 || stages[0] != StageDocumentsUploaded {
		return false
	}
	for i := 1; i < len(stages); i++ {
		if !CanTransition(stages[i-1], stages[i]) {
			return false
		}
	}
	return true
}

// ApplicationStatus is the coarse outcome of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// StatusFor returns the status implied by entering stage.
func StatusFor(stage WorkflowStage) ApplicationStatus {
	switch stage {
	case StageCompleted:
		return ApplicationStatusApproved
	case StageRejected:
		return ApplicationStatusRejected
	default:
		return ApplicationStatusPending
	}
}

// LetterStatus tracks the hospital invitation letter independently of the stage.
type LetterStatus string

const (
	LetterNotGenerated LetterStatus = "not_generated"
	LetterGenerated    LetterStatus = "generated"
	LetterVerified     LetterStatus = "verified"
)
