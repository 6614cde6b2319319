package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
)

// TokenConfig configures a TokenService. Access and refresh tokens must use
// different secrets.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Strict rejects secrets shorter than jwtx.MinSecretLength.
	Strict bool
	Leeway time.Duration
}

// TokenService mints and verifies the access/refresh pair.
type TokenService struct {
	accessSigner    jwtx.Signer
	accessVerifier  jwtx.Verifier
	refreshSigner   jwtx.Signer
	refreshVerifier jwtx.Verifier

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock used when minting tokens. Nil means time.Now.
	Now func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) > 0 && string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	opts := jwtx.VerifyOptions{Issuer: cfg.Issuer, Leeway: cfg.Leeway}

	accessSigner, err := jwtx.NewSignerHS256(cfg.AccessSecret, cfg.Strict)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	accessVerifier, err := jwtx.NewVerifierHS256(cfg.AccessSecret, cfg.Strict, opts)
	if err != nil {
		return nil, fmt.Errorf("access verifier: %w", err)
	}
	refreshSigner, err := jwtx.NewSignerHS256(cfg.RefreshSecret, cfg.Strict)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}
	refreshVerifier, err := jwtx.NewVerifierHS256(cfg.RefreshSecret, cfg.Strict, opts)
	if err != nil {
		return nil, fmt.Errorf("refresh verifier: %w", err)
	}

	return &TokenService{
		accessSigner:    accessSigner,
		accessVerifier:  accessVerifier,
		refreshSigner:   refreshSigner,
		refreshVerifier: refreshVerifier,
		Issuer:          cfg.Issuer,
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
	}, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueAccessToken signs an access token for userID carrying role.
func (s *TokenService) IssueAccessToken(userID string, role domain.Role) (string, time.Time, error) {
	claims := jwtx.NewAccessClaims(userID, string(role), s.Issuer, s.AccessTTL, s.now())

	token, err := s.accessSigner.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssueRefreshToken signs a refresh token for userID.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	claims := jwtx.NewRefreshClaims(userID, s.Issuer, s.RefreshTTL, s.now())

	token, err := s.refreshSigner.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssuePair mints a fresh access and refresh token together.
func (s *TokenService) IssuePair(userID string, role domain.Role) (domain.TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(userID, role)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken checks an access token against the access secret. The
// error is jwtx.ErrTokenExpired or wraps jwtx.ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(token string) (*jwtx.AccessClaims, error) {
	var claims jwtx.AccessClaims
	if err := s.accessVerifier.Verify(token, &claims); err != nil {
		return nil, err
	}
	if !domain.Role(claims.Role).Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", jwtx.ErrTokenInvalid, claims.Role)
	}
	return &claims, nil
}

// VerifyRefreshToken checks a refresh token against the refresh secret.
func (s *TokenService) VerifyRefreshToken(token string) (*jwtx.RefreshClaims, error) {
	var claims jwtx.RefreshClaims
	if err := s.refreshVerifier.Verify(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
