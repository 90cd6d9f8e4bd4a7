package authapi

// LoginRequest is the body of POST /auth/login. Coordinates are omitted when
// the device could not provide a fix.
type LoginRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// LoginResponse carries the fields of a successful login the client uses.
type LoginResponse struct {
	Token      string `json:"token"`
	FarmerID   string `json:"farmer_id"`
	FarmerName string `json:"farmer_name"`
	Email      string `json:"email"`
	UserType   string `json:"userType"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse echoes the created account.
type SignupResponse struct {
	Email      string `json:"email"`
	FarmerName string `json:"farmer_name"`
}

type confirmEmailRequest struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRecoveryCodeRequest struct {
	RecoveryCode string `json:"recoveryCode"`
}

// VerifyRecoveryCodeResponse names the account a recovery code belongs to.
type VerifyRecoveryCodeResponse struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	RecoveryCode string `json:"recoveryCode"`
	NewPassword  string `json:"newPassword"`
}

// errorPayload is the shape of every non-2xx body.
type errorPayload struct {
	Error                string `json:"error"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	Email                string `json:"email"`
	Attempts             string `json:"attempts"`
}
