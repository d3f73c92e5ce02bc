package domain

// SessionState is the phase a session is in.
type SessionState string

const (
	StateLobby             SessionState = "LOBBY"
	StateQuestionCountdown SessionState = "QUESTION_COUNTDOWN"
	StateQuestionOpen      SessionState = "QUESTION_OPEN"
	StateQuestionClose     SessionState = "QUESTION_CLOSE"
	StateAnswerShow        SessionState = "ANSWER_SHOW"
	StateFinalResults      SessionState = "FINAL_RESULTS"
	StateEnd               SessionState = "END"
)

// Active reports whether the session has not ended.
func (s SessionState) Active() bool {
	return s != StateEnd
}

// Action is a host-issued trigger.
type Action string

const (
	ActionNextQuestion     Action = "NEXT_QUESTION"
	ActionSkipCountdown    Action = "SKIP_COUNTDOWN"
	ActionGoToAnswer       Action = "GO_TO_ANSWER"
	ActionGoToFinalResults Action = "GO_TO_FINAL_RESULTS"
	ActionEnd              Action = "END"
)

// ParseAction maps a transport-level action name onto an Action.
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionNextQuestion, ActionSkipCountdown, ActionGoToAnswer, ActionGoToFinalResults, ActionEnd:
		return a, nil
	}
	return "", ErrUnknownAction
}
