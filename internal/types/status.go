package types

// Judge reported test statuses. The judge may report other descriptions, they are stored
// verbatim and count as not accepted.
const (
	StatusAccepted          = "Accepted"
	StatusWrongAnswer       = "Wrong Answer"
	StatusTimeLimitExceeded = "Time Limit Exceeded"
	StatusCompilationError  = "Compilation Error"
)
