// internal/domain/auth/dto.go
package auth

// LoginRequest carries the sign-in form. Identifier is a phone number or
// membership id depending on what the member typed.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult is the payload under "data" in the login response.
type LoginResult struct {
	Token     string   `json:"token"`
	SessionID string   `json:"sessionId"`
	User      AuthUser `json:"user"`
}

// LoginResponse is the full login response envelope.
type LoginResponse struct {
	Message string      `json:"message,omitempty"`
	Data    LoginResult `json:"data"`
}

// DocumentUpload is one identity document attached to a registration.
// Content is the raw file bytes; Field names the multipart part.
type DocumentUpload struct {
	Field    string
	Filename string
	Content  []byte
}

// RegisterRequest carries the full registration form: identity, address
// and up to four identity documents submitted as multipart parts.
// Registration does not authenticate; the OTP flow follows it.
type RegisterRequest struct {
	FullName    string
	Phone       string
	Email       string
	DateOfBirth string
	Gender      string

	AddressLine string
	District    string
	State       string
	Pincode     string

	Password string

	Documents []DocumentUpload
}

// Fields returns the scalar form fields keyed by part name. Empty values
// are kept here and filtered out by the multipart encoder.
func (r RegisterRequest) Fields() map[string]string {
	return map[string]string{
		"fullName":    r.FullName,
		"phone":       r.Phone,
		"email":       r.Email,
		"dateOfBirth": r.DateOfBirth,
		"gender":      r.Gender,
		"addressLine": r.AddressLine,
		"district":    r.District,
		"state":       r.State,
		"pincode":     r.Pincode,
		"password":    r.Password,
	}
}

// RegisterResponse acknowledges a submitted registration.
type RegisterResponse struct {
	Message string `json:"message,omitempty"`
	Data    struct {
		RegistrationID string `json:"registrationId"`
		Status         string `json:"status"`
	} `json:"data"`
}

// SendOTPRequest asks the server to deliver a one-time password.
type SendOTPRequest struct {
	Identifier string `json:"identifier"`
}

// VerifyOTPRequest confirms the delivered one-time password.
type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

// UserResponse wraps the member profile endpoints.
type UserResponse struct {
	Message string   `json:"message,omitempty"`
	Data    AuthUser `json:"data"`
}

// UpdateProfileRequest carries editable profile fields for PUT /users/me.
type UpdateProfileRequest struct {
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	AddressLine string `json:"addressLine,omitempty"`
	District    string `json:"district,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
}
