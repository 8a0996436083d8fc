package model

// SyncRequest is the body of a push: the owner plus the full record set.
type SyncRequest struct {
	Username string
	Domain   Domain
	Records  any
}
