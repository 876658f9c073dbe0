package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Results.CacheTTL)
	assert.Equal(t, 100.0, cfg.Results.SubjectMaxScore)
	assert.Equal(t, 2, cfg.Quizzes.RegradeWorkers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("RESULTS_CACHE_TTL", "not-a-duration")
	v.Set("RESULTS_SUBJECT_MAX_SCORE", -5)
	v.Set("ENV", EnvProduction)

	cfg := fromViper(v)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 10*time.Minute, cfg.Results.CacheTTL)
	assert.Equal(t, 100.0, cfg.Results.SubjectMaxScore)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Second))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitAndTrim(" https://a.example, ,https://b.example "))
}
