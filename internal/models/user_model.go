package models

// User roles stored in the "role" field of a user document.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the verified caller, as decoded from an access token.
type Identity struct {
	Email string `json:"email"`
	UID   string `json:"uid"`
}

// IsZero reports whether no identity was established for the request.
func (i Identity) IsZero() bool {
	return i.UID == "" && i.Email == ""
}
