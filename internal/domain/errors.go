package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of these.
var (
	// ErrInvalidReference covers unknown sessions, players, quizzes and question positions.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInvalidInput covers malformed answers and names.
	ErrInvalidInput = errors.New("invalid input")
)

var (
	// ErrSessionNotFound is returned when a quiz session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrInvalidReference)
	// ErrPlayerNotFound is returned when no session contains the player.
	ErrPlayerNotFound = fmt.Errorf("%w: player not found", ErrInvalidReference)
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("%w: quiz not found", ErrInvalidReference)
	// ErrQuestionPositionInvalid indicates a question position outside the quiz.
	ErrQuestionPositionInvalid = fmt.Errorf("%w: question position is not valid for this quiz", ErrInvalidReference)

	ErrInvalidAction        = fmt.Errorf("%w: action cannot be applied in the current state", ErrInvalidTransition)
	ErrNoMoreQuestions      = fmt.Errorf("%w: session is already on the last question", ErrInvalidTransition)
	ErrSessionNotInLobby    = fmt.Errorf("%w: session is not in LOBBY state", ErrInvalidTransition)
	ErrSessionNotOnQuestion = fmt.Errorf("%w: session is not currently on this question", ErrInvalidTransition)
	ErrQuestionNotOpen      = fmt.Errorf("%w: question is not open for answers", ErrInvalidTransition)
	ErrResultsNotAvailable  = fmt.Errorf("%w: results are not available in the current state", ErrInvalidTransition)
	ErrQuestionNotVisible   = fmt.Errorf("%w: question is not visible in the current state", ErrInvalidTransition)
	ErrTooManySessions      = fmt.Errorf("%w: too many active sessions for this quiz", ErrInvalidTransition)

	ErrPlayerNameTaken  = fmt.Errorf("%w: player name is already taken in this session", ErrInvalidInput)
	ErrNoAnswerSelected = fmt.Errorf("%w: at least one answer must be selected", ErrInvalidInput)
	ErrAnswerNotFound   = fmt.Errorf("%w: answer does not belong to this question", ErrInvalidInput)
	ErrDuplicateAnswer  = fmt.Errorf("%w: answer ids must be unique", ErrInvalidInput)
	ErrAutoStartInvalid = fmt.Errorf("%w: autoStartNum is out of range", ErrInvalidInput)
	ErrQuizEmpty        = fmt.Errorf("%w: quiz has no questions", ErrInvalidInput)
	ErrUnknownAction    = fmt.Errorf("%w: unknown action", ErrInvalidInput)
)
