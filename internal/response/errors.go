package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session ───────────────────────────────────────────────────────
	ErrSessionExpired ErrCode = "SESSION_EXPIRED"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrQuizFinished       ErrCode = "QUIZ_FINISHED"
	ErrQuizNotFinished    ErrCode = "QUIZ_NOT_FINISHED"
	ErrNoPreviousQuestion ErrCode = "NO_PREVIOUS_QUESTION"
	ErrQuestionOutOfRange ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrUnknownOption      ErrCode = "UNKNOWN_OPTION"
	ErrAnswerRequired     ErrCode = "ANSWER_REQUIRED"
	ErrNotAllAnswered     ErrCode = "NOT_ALL_ANSWERED"
	ErrUnknownAction      ErrCode = "UNKNOWN_ACTION"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Session ───────────────────────────────────────────────────────
	case ErrSessionExpired:
		return "Your quiz session has expired. Start a new one."

	// ─── Quiz ──────────────────────────────────────────────────────────
	case ErrQuizFinished:
		return "The quiz is already finished."
	case ErrQuizNotFinished:
		return "Results are available once the quiz is submitted."
	case ErrNoPreviousQuestion:
		return "You are on the first question."
	case ErrQuestionOutOfRange:
		return "That question does not exist."
	case ErrUnknownOption:
		return "That option does not belong to the current question."
	case ErrAnswerRequired:
		return "Select an answer or skip the question first."
	case ErrNotAllAnswered:
		return "Answer or skip every question before submitting."
	case ErrUnknownAction:
		return "Unknown quiz action."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
