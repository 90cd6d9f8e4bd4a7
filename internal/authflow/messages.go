package authflow

// Text rendered by the flows. Server-supplied error messages take precedence
// over the fallbacks.
const (
	MsgNetworkError         = "Network error. Please try again."
	MsgLoginSuccess         = "Login successful! Redirecting..."
	MsgLoginFailed          = "Login failed"
	MsgEmailNotConfirmed    = "Email not confirmed. Please check your email."
	MsgSessionNotSaved      = "Could not save your session. Please try again."
	MsgSignupFailed         = "Signup failed"
	MsgInvalidConfirmation  = "Invalid confirmation code"
	MsgEmailConfirmed       = "Email confirmed successfully! You can now log in."
	MsgResendFailed         = "Failed to resend code"
	MsgConfirmationResent   = "New confirmation code sent to your email!\n\nPlease check your inbox and spam folder."
	MsgRecoveryRequestFail  = "Failed to send recovery code"
	MsgRecoveryCodeSent     = "Recovery code sent to your email!\n\nPlease check your inbox and spam folder."
	MsgInvalidRecoveryCode  = "Invalid recovery code"
	MsgPasswordResetFailed  = "Password reset failed"
	MsgPasswordResetSuccess = "Password reset successfully! You can now log in with your new password."

	recoverySentLabel = "Recovery code sent to: "
	resetTargetLabel  = "Resetting password for: "
)

// signupNotice is the acknowledgement shown after an account was created.
const signupNotice = `Account created successfully!

Username: %s

IMPORTANT: Check your email for:
1. Confirmation code (6 characters) - Enter it in the next step
2. Recovery code (8 characters) - Save it for password recovery

Please check your inbox and spam folder.`
