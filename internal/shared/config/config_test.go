package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 60*time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, 48*time.Hour, cfg.JWT.RefreshExpiresIn)
	assert.Equal(t, time.Hour, cfg.JWT.BlocklistTTL)
	assert.True(t, cfg.Policy.UniqueUsername)
	assert.False(t, cfg.Policy.EmailRequiredForSignup)
	assert.False(t, cfg.Policy.VerifiedWrites)
	assert.Equal(t, 10*time.Minute, cfg.Redis.BookCacheTTL)
	assert.False(t, cfg.KafkaEnabled())
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, []string{"*"}, cfg.AllowedHosts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "120")
	t.Setenv("JWT_BLOCKLIST_TTL", "7200")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("EMAIL_REQUIRED_FOR_SIGNUP", "true")
	t.Setenv("RATE_LIMIT_AUTH_REQUESTS", "not-a-number")
	t.Setenv("REQUIRE_VERIFIED_ACCOUNT", "true")
	t.Setenv("BOOK_CACHE_TTL", "30s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.1")
	t.Setenv("ALLOWED_HOSTS", "api.bookly.dev, *.bookly.dev")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, 2*time.Hour, cfg.JWT.BlocklistTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Policy.EmailRequiredForSignup)
	assert.Equal(t, 10, cfg.RateLimit.AuthRequests)
	assert.True(t, cfg.Policy.VerifiedWrites)
	assert.Equal(t, 30*time.Second, cfg.Redis.BookCacheTTL)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, []string{"api.bookly.dev", "*.bookly.dev"}, cfg.AllowedHosts)
}

func TestValidateRejectsDefaultSecretInRelease(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.Equal(t, DefaultJWTSecret, cfg.JWT.Secret)
	assert.ErrorIs(t, cfg.Validate(), ErrInsecureJWTSecret)

	cfg.JWT.Secret = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInsecureJWTSecret)

	t.Setenv("JWT_SECRET", "a-private-signing-key")
	assert.NoError(t, Load().Validate())
}

func TestValidateAllowsDefaultSecretInDebug(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")

	assert.NoError(t, Load().Validate())
}
