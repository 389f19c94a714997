package tokenmgr

// Credentials is the access/refresh token pair issued by the backend. Both
// tokens are opaque bearer strings; the manager never inspects their
// contents. A pair is either fully present or fully absent; there is no
// valid state with only one token set.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether no credential pair is present.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Valid reports whether both tokens of the pair are present.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}
