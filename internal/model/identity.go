package model

// Identity is the authenticated caller as resolved by the auth middleware.
type Identity struct {
	Username string
	Campus   string
	Verified bool
}

func (i Identity) Party() Party {
	return Party{Username: i.Username, Campus: i.Campus}
}
