package rest

// filenameRule limits filenames on every route that takes one.
const filenameRule = "max=255"

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	AuthToken string `json:"auth-token"`
}

// RenameRequest is the body of PUT /file.
type RenameRequest struct {
	Filename string `json:"filename" validate:"required,max=255"` // keep in sync with filenameRule
}
