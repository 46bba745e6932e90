package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"InterviewCoach/internal/interview"
)

// Backend status values.
const (
	StatusSuccess   = "success"
	StatusContinue  = "continue"
	StatusCompleted = "completed"
	StatusErr       = "error"
)

// StatusError is a failure reported by the backend inside its JSON envelope.
type StatusError struct {
	Op         string
	Status     string
	Message    string
	HTTPStatus int
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %q", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// envelope carries the fields every response may include.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func (e envelope) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return e.Error
	}
}

// wireProgress is the progress.* response shape.
type wireProgress struct {
	CurrentQuestion int `json:"current_question"`
	TotalQuestions  int `json:"total_questions"`
}

// wireSessionInfo is the session_info.* response shape.
type wireSessionInfo struct {
	QuestionNumber int `json:"question_number"`
	TotalQuestions int `json:"total_questions"`
}

// startResponse is the body returned by the start endpoint
type startResponse struct {
	envelope
	SessionID    string           `json:"session_id"`
	Question     string           `json:"question"`
	NextQuestion string           `json:"next_question"`
	Progress     *wireProgress    `json:"progress"`
	SessionInfo  *wireSessionInfo `json:"session_info"`
}

// answerRequest is the body sent to the answer endpoint
type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// answerResponse is the body returned by the answer endpoint
type answerResponse struct {
	envelope
	NextQuestion string              `json:"next_question"`
	Feedback     *interview.Feedback `json:"feedback"`
	Progress     *wireProgress       `json:"progress"`
	SessionInfo  *wireSessionInfo    `json:"session_info"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	envelope
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// normalizeProgress maps either progress shape onto interview.Progress.
// progress.* wins when both are present.
func normalizeProgress(p *wireProgress, si *wireSessionInfo) (interview.Progress, bool) {
	switch {
	case p != nil:
		return interview.Progress{Current: p.CurrentQuestion, Total: p.TotalQuestions}, true
	case si != nil:
		return interview.Progress{Current: si.QuestionNumber, Total: si.TotalQuestions}, true
	default:
		return interview.Progress{}, false
	}
}

// StartResult is a normalized start response.
type StartResult struct {
	SessionID string
	Question  string
	Progress  interview.Progress
}

// AnswerResult is a normalized answer response. HasNext is false when the
// backend sent no next question.
type AnswerResult struct {
	Status       string
	NextQuestion string
	HasNext      bool
	Feedback     *interview.Feedback
	Progress     interview.Progress
	HasProgress  bool
}

// Profile is the signed-in user as returned by the profile endpoint.
type Profile struct {
	ID       FlexID `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName picks the most specific name available.
func (p Profile) DisplayName() string {
	for _, name := range []string{p.FullName, p.Name, p.Username, p.Email} {
		if name != "" {
			return name
		}
	}
	return string(p.ID)
}

// FlexID accepts identifiers sent either as JSON strings or numbers.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexID(strings.TrimSpace(n.String()))
	return nil
}
