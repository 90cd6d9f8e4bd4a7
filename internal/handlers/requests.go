package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/geo"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// ActionRequest is the DTO for POST /flows/actions/:action. It accepts JSON
// or form bodies. Empty values are allowed here: the flow itself decides
// which fields an action needs and reports missing ones in the view. Codes
// are passed through as typed; the auth server judges them.
//
// Latitude and Longitude carry the browser's own position fix, if it has
// one. They are only used when both are present.
type ActionRequest struct {
	Email           string   `json:"email" form:"email" validate:"omitempty,max=254"`
	Password        string   `json:"password" form:"password" validate:"max=1024"`
	PasswordConfirm string   `json:"password_confirm" form:"password_confirm" validate:"max=1024"`
	Code            string   `json:"code" form:"code" validate:"max=64"`
	Latitude        *float64 `json:"latitude" form:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude       *float64 `json:"longitude" form:"longitude" validate:"omitempty,min=-180,max=180"`
}

// Input converts the DTO into controller input.
func (r ActionRequest) Input() authflow.Input {
	in := authflow.Input{
		Email:           r.Email,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
		Code:            r.Code,
	}
	if r.Latitude != nil && r.Longitude != nil {
		in.Location = &geo.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return in
}
