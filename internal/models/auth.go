package models

// SignUpRequest is the payload for POST /api/auth/signup.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// SignInRequest is the payload for POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleAuthRequest is the payload for POST /api/auth/google. The client has
// already decoded the identity-provider JWT and posts its claims; the server
// does not independently verify the provider's signature.
type GoogleAuthRequest struct {
	Mode      string `json:"mode"` // "signin" or "signup"
	Subject   string `json:"subject"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PictureURL string `json:"picture_url"`
	Phone     string `json:"phone"`
}

// AuthResult is returned by every auth operation that yields a live session.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
