package handlers

import (
	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FlowResponse is what every flow endpoint returns: the state after the
// request, the actions the client may trigger next, and the error of the
// request if it failed. Flow failures are also rendered inside the view.
type FlowResponse struct {
	View      authflow.View     `json:"view"`
	Available []authflow.Action `json:"available"`
	Error     string            `json:"error,omitempty"`
}

// NewFlowResponse snapshots ctrl, draining its notices since the response
// delivers them to the user.
func NewFlowResponse(ctrl *authflow.Controller, err error) FlowResponse {
	resp := FlowResponse{
		View:      ctrl.Consume(),
		Available: ctrl.Available(),
	}
	if err != nil {
		if msg, ok := domain.Message(err); ok {
			resp.Error = msg
		} else {
			resp.Error = err.Error()
		}
	}
	return resp
}
