package auth

import (
	"context"
	"errors"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Provider turns a bearer token into a Principal. One implementation is
// active per deployment.
type Provider interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// LocalProvider accepts the HS256 access tokens issued by /auth/login.
type LocalProvider struct {
	secret string
}

func NewLocalProvider(secret string) *LocalProvider {
	return &LocalProvider{secret: secret}
}

func (p *LocalProvider) Resolve(_ context.Context, token string) (*Principal, error) {
	claims, err := ValidateToken(token, p.secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	return claims.Principal()
}

// ExternalIdentity is what an identity provider asserts about the caller.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// Directory maps an external identity to a local user, provisioning it on
// first sight. Role and gym always come from local storage.
type Directory interface {
	ResolveExternal(ctx context.Context, id ExternalIdentity) (*Principal, error)
}

type externalClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// JWKSProvider verifies tokens signed by an external IdP (Firebase, Clerk)
// against its published key set.
type JWKSProvider struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	dir      Directory
}

func NewJWKSProvider(kf jwt.Keyfunc, issuer, audience string, dir Directory) *JWKSProvider {
	return &JWKSProvider{keyfunc: kf, issuer: issuer, audience: audience, dir: dir}
}

// NewRemoteKeyfunc fetches and periodically refreshes the key set at url.
func NewRemoteKeyfunc(ctx context.Context, url string) (keyfunc.Keyfunc, error) {
	return keyfunc.NewDefaultCtx(ctx, []string{url})
}

func (p *JWKSProvider) Resolve(ctx context.Context, token string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	claims := &externalClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, p.keyfunc, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	return p.dir.ResolveExternal(ctx, ExternalIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    name,
	})
}
