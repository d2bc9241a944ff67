package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-api/internal/config"
)

const discoveryPath = "/.well-known/openid-configuration"

// NewKeySet resolves the issuer's discovery document to its JWKS endpoint
// and returns a key function backed by a periodically refreshed key set,
// so issuer-side key rotation is picked up without a restart.
func NewKeySet(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (jwt.Keyfunc, error) {
	jwksURL, err := discoverJWKSURL(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("resolve jwks url: %w", err)
	}

	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		HTTPTimeout:               10 * time.Second,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.JWKSRefreshInterval(),
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Warn("jwks refresh failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init jwks storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("init keyfunc: %w", err)
	}

	logger.Info("jwt key set initialized", zap.String("jwks_url", jwksURL))
	return kf.Keyfunc, nil
}

func discoverJWKSURL(ctx context.Context, issuerURL string) (string, error) {
	if issuerURL == "" {
		return "", fmt.Errorf("issuer URL not configured")
	}

	discoveryURL := strings.TrimRight(issuerURL, "/") + discoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery document returned status %d", resp.StatusCode)
	}

	var doc struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode discovery document: %w", err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("discovery document missing jwks_uri")
	}
	return doc.JWKSURI, nil
}
