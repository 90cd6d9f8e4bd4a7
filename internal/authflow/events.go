package authflow

import (
	"context"
	"time"

	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/pubsub"
)

// Flow names one request-issuing step. Each flow has its own in-flight guard.
type Flow string

const (
	FlowLogin              Flow = "login"
	FlowSignup             Flow = "signup"
	FlowConfirmEmail       Flow = "confirm-email"
	FlowResendConfirmation Flow = "resend-confirmation"
	FlowRecoveryRequest    Flow = "recovery-request"
	FlowRecoveryVerify     Flow = "recovery-verify"
	FlowResetPassword      Flow = "reset-password"
)

var allFlows = []Flow{
	FlowLogin, FlowSignup, FlowConfirmEmail, FlowResendConfirmation,
	FlowRecoveryRequest, FlowRecoveryVerify, FlowResetPassword,
}

// Outcome is how a flow step ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeRejected means the step failed locally and sent nothing.
	OutcomeRejected Outcome = "rejected"
)

// FlowEvent is published once per completed flow step. It never carries
// credentials or codes.
type FlowEvent struct {
	Flow    Flow         `json:"flow"`
	Outcome Outcome      `json:"outcome"`
	Panel   domain.Panel `json:"panel"`
	At      time.Time    `json:"at"`
}

// FlowEvents is the topic flow events are published on.
var FlowEvents = pubsub.NewEvent[FlowEvent]("authflow.events", "Outcome of each authentication flow step")

func (c *Controller) emit(flow Flow, outcome Outcome, p domain.Panel) {
	if c.publisher == nil {
		return
	}
	ev := FlowEvent{Flow: flow, Outcome: outcome, Panel: p, At: time.Now().UTC()}
	if err := pubsub.Publish(context.Background(), c.publisher, FlowEvents, c.sessionID, ev); err != nil {
		c.logger.Warn("Failed to publish flow event", "flow", flow, "error", err)
	}
}
