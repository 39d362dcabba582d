package config

// AuthProviderConfig defines the raw configuration for an auth provider.
type AuthProviderConfig struct {
	Name         string
	Type         string
	Enabled      bool
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Scopes       []string
	AllowSignUp  bool

	// Apple signs its own client secret from these.
	TeamID     string
	KeyID      string
	PrivateKey string
}

// ProviderView is the public description served to the login page.
type ProviderView struct {
	Type string `json:"type"`
	Name string `json:"name"`
}
