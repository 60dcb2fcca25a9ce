package models

// Identity is what the authentication layer hands to the services.
type Identity struct {
	Username      string `json:"username"`
	Name          string `json:"name,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

var Anonymous = Identity{}
