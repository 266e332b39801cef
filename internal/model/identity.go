package model

// Identity is the caller resolved from a verified identity token.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
