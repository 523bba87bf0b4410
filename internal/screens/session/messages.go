package session

import (
	sess "github.com/abhisek/practest/internal/session"
)

// tickMsg carries one countdown step from the attempt timer.
type tickMsg struct {
	Event sess.TickEvent
}

// timerStoppedMsg is sent when the timer's event stream ends.
type timerStoppedMsg struct{}

// completedMsg is sent when a learner-initiated submit has finished.
type completedMsg struct {
	Submission *sess.Submission
	Err        error
}
