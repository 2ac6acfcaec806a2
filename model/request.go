// file: model/request.go

package model

// CreateUserRequest defines the payload for creating a new user.
// The "John"/"Doe" examples are documentation only, not defaults.
type CreateUserRequest struct {
	Login     string `json:"login" xml:"login" validate:"required,letters_digits,max=50" example:"jdoe"`
	FirstName string `json:"firstName" xml:"firstName" validate:"required,max=100" example:"John"`
	LastName  string `json:"lastName" xml:"lastName" validate:"required,max=100" example:"Doe"`
}

// UpdateUserRequest is the full-replace payload for PUT and the target
// document of a PATCH.
type UpdateUserRequest struct {
	Login     string `json:"login" xml:"login" validate:"required,letters_digits,max=50" example:"jdoe"`
	FirstName string `json:"firstName" xml:"firstName" validate:"required,max=100" example:"John"`
	LastName  string `json:"lastName" xml:"lastName" validate:"required,max=100" example:"Doe"`
}
