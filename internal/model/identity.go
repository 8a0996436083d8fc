package model

// Identity is the logged-in user as far as sync is concerned.
type Identity struct {
	Username string
	Token    string
}

// Valid reports whether both username and token are present.
func (i Identity) Valid() bool {
	return i.Username != "" && i.Token != ""
}
