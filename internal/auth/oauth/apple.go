package oauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authconfig "github.com/smallbiznis/invoicely/internal/auth/config"
)

const (
	appleIssuer          = "https://appleid.apple.com"
	appleClientSecretTTL = 5 * time.Minute
)

// appleClientSecret signs the short-lived ES256 JWT Apple accepts as
// client_secret, using the team's .p8 key.
func appleClientSecret(cfg authconfig.AuthProviderConfig, now time.Time) (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(cfg.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("%w: apple private key: %v", ErrInvalidProvider, err)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    cfg.TeamID,
		Subject:   cfg.ClientID,
		Audience:  jwt.ClaimStrings{appleIssuer},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appleClientSecretTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = cfg.KeyID
	return token.SignedString(key)
}

type appleUser struct {
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Email string `json:"email"`
}

// appleIdentity reads the id_token returned by Apple's token endpoint. The
// token arrives directly from Apple over TLS, so only its issuer and
// audience are checked.
func appleIdentity(cfg authconfig.AuthProviderConfig, idToken string, rawUser string) (Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return Identity{}, ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return Identity{}, ErrUnauthorized
	}
	if iss, _ := claims.GetIssuer(); iss != appleIssuer {
		return Identity{}, ErrUnauthorized
	}
	aud, _ := claims.GetAudience()
	if !containsString(aud, cfg.ClientID) {
		return Identity{}, ErrUnauthorized
	}

	identity := Identity{
		ExternalID: firstClaim(claims, "sub"),
		Email:      firstClaim(claims, "email"),
	}

	if strings.TrimSpace(rawUser) != "" {
		var user appleUser
		if err := json.Unmarshal([]byte(rawUser), &user); err == nil {
			identity.DisplayName = strings.TrimSpace(user.Name.FirstName + " " + user.Name.LastName)
			if identity.Email == "" {
				identity.Email = strings.TrimSpace(user.Email)
			}
		}
	}

	if identity.ExternalID == "" {
		return Identity{}, ErrUnauthorized
	}
	return identity, nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
