package provider

// User is the provider's view of the authenticated principal.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
}

// TokenPair is the session material issued by the provider.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// SignInResult is either a completed sign-in (Tokens set) or an MFA gate
// (MFARequired true with the ids the verify step needs).
type SignInResult struct {
	Tokens      *TokenPair
	MFARequired bool
	FactorID    string
	ChallengeID string
}

// Factor describes an enrolled MFA factor.
type Factor struct {
	ID           string `json:"id"`
	FactorType   string `json:"factor_type"`
	Status       string `json:"status"`
	FriendlyName string `json:"friendly_name,omitempty"`
}

// Challenge is an issued MFA challenge awaiting a code.
type Challenge struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}
