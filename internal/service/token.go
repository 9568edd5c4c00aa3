package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// 令牌相关错误
var (
	ErrInvalidToken     = errors.New("无效的令牌")
	ErrTokenExpired     = errors.New("令牌已过期")
	ErrTokenRevoked     = errors.New("令牌已注销")
	ErrInvalidSignature = errors.New("签名验证失败")
	ErrInvalidIssuer    = errors.New("无效的签发者")
	ErrInvalidTokenType = errors.New("令牌类型错误")
)

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const revokedTokenPrefix = "revoked_token:"

// TokenClaims JWT 声明
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type,omitempty"` // access, refresh
}

// TokenService 令牌服务接口
type TokenService interface {
	// GenerateAccessToken 生成访问令牌
	GenerateAccessToken(ctx context.Context, claims *TokenClaims) (string, error)
	// GenerateRefreshToken 生成刷新令牌
	GenerateRefreshToken(ctx context.Context, claims *TokenClaims) (string, error)
	// ValidateToken 验证令牌签名、有效期和注销状态
	ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error)
	// RevokeToken 注销令牌，直到其原有效期结束
	RevokeToken(ctx context.Context, claims *TokenClaims) error
	// AccessExpiry 访问令牌有效期
	AccessExpiry() time.Duration
}

// tokenService 令牌服务实现
type tokenService struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	keyID         string
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	redis         *goredis.Client
}

// TokenServiceConfig 令牌服务配置
type TokenServiceConfig struct {
	PrivateKey    *rsa.PrivateKey
	KeyID         string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	// Redis 为空时不支持注销
	Redis *goredis.Client
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg *TokenServiceConfig) TokenService {
	accessExpiry := cfg.AccessExpiry
	if accessExpiry <= 0 {
		accessExpiry = DefaultAccessExpiry
	}
	refreshExpiry := cfg.RefreshExpiry
	if refreshExpiry <= 0 {
		refreshExpiry = DefaultRefreshExpiry
	}
	return &tokenService{
		privateKey:    cfg.PrivateKey,
		publicKey:     &cfg.PrivateKey.PublicKey,
		keyID:         cfg.KeyID,
		issuer:        cfg.Issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		redis:         cfg.Redis,
	}
}

// LoadPrivateKey 从 PEM 文件加载 RSA 私钥，路径为空时生成临时密钥
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return rsa.GenerateKey(rand.Reader, 2048)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取私钥失败: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return key, nil
}

func (s *tokenService) GenerateAccessToken(ctx context.Context, claims *TokenClaims) (string, error) {
	return s.sign(claims, TokenTypeAccess, s.accessExpiry)
}

func (s *tokenService) GenerateRefreshToken(ctx context.Context, claims *TokenClaims) (string, error) {
	return s.sign(claims, TokenTypeRefresh, s.refreshExpiry)
}

func (s *tokenService) sign(claims *TokenClaims, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims.Type = tokenType
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	return token.SignedString(s.privateKey)
}

func (s *tokenService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSignature
		}
		return s.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.issuer {
		return nil, ErrInvalidIssuer
	}

	if s.redis != nil && claims.ID != "" {
		n, err := s.redis.Exists(ctx, revokedTokenPrefix+claims.ID).Result()
		if err != nil {
			return nil, fmt.Errorf("查询令牌注销状态失败: %w", err)
		}
		if n > 0 {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *tokenService) RevokeToken(ctx context.Context, claims *TokenClaims) error {
	if s.redis == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedTokenPrefix+claims.ID, "1", ttl).Err()
}

func (s *tokenService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

// 令牌有效期默认值
const (
	DefaultAccessExpiry  = 2 * time.Hour
	DefaultRefreshExpiry = 7 * 24 * time.Hour
)
