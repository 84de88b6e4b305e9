package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, Duration(time.Second), cfg.Search.Debounce)
	assert.Equal(t, BackendSQLite, cfg.Trending.Backend)
	assert.Equal(t, 5, cfg.Trending.Limit)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Zero(t, cfg.TMDB.Timeout)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/cf"

[tmdb]
timeout = "10s"
requests_per_second = 4.5

[search]
debounce = "250ms"

[trending]
backend = "dynamodb"
limit = 10
table = "counts"
region = "eu-west-1"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cf", cfg.DataDir)
	assert.Equal(t, Duration(10*time.Second), cfg.TMDB.Timeout)
	assert.Equal(t, 4.5, cfg.TMDB.RequestsPerSecond)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Search.Debounce)
	assert.Equal(t, BackendDynamoDB, cfg.Trending.Backend)
	assert.Equal(t, 10, cfg.Trending.Limit)
	assert.Equal(t, "counts", cfg.Trending.Table)
	// untouched keys keep their defaults
	assert.Equal(t, "by-count", cfg.Trending.Index)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500", cfg.TMDB.ImageBaseURL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndebounce = \"soon\"\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTripOmitsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.TMDB.Token = "secret"
	cfg.Search.Debounce = Duration(750 * time.Millisecond)

	require.NoError(t, cfg.Save(path))
	assert.Equal(t, "secret", cfg.TMDB.Token, "Save must not mutate the receiver")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(750*time.Millisecond), loaded.Search.Debounce)
	assert.Empty(t, loaded.TMDB.Token)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TMDB_API_KEY":              "  tok  ",
		"CINEFIND_DATA_DIR":         "/data",
		"CINEFIND_TRENDING_BACKEND": "DynamoDB",
		"CINEFIND_TRENDING_LIMIT":   "8",
		"AWS_REGION":                "us-east-2",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "tok", cfg.TMDB.Token)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, BackendDynamoDB, cfg.Trending.Backend)
	assert.Equal(t, 8, cfg.Trending.Limit)
	assert.Equal(t, "us-east-2", cfg.Trending.Region)
	assert.Equal(t, filepath.Join("/data", "cinefind.db"), cfg.DBPath())
}

func TestApplyEnvRegionOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[trending]\nregion = \"us-east-1\"\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "us-east-1", cfg.Trending.Region)

	cfg.ApplyEnv(func(k string) string {
		if k == "AWS_REGION" {
			return "eu-west-1"
		}
		return ""
	})
	assert.Equal(t, "eu-west-1", cfg.Trending.Region)

	// An unset variable leaves the file value alone.
	cfg, err = Load(path)
	require.NoError(t, err)
	cfg.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, "us-east-1", cfg.Trending.Region)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.TMDB.Token = "tok"
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.TMDB.Token = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingToken)

	c = valid()
	c.Trending.Backend = "redis"
	assert.ErrorContains(t, c.Validate(), "unknown trending backend")

	c = valid()
	c.Trending.Backend = BackendDynamoDB
	c.Trending.Table = ""
	assert.ErrorContains(t, c.Validate(), "trending.table")

	c = valid()
	c.Trending.Limit = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Search.Debounce = Duration(-time.Second)
	assert.ErrorContains(t, c.Validate(), "search.debounce")
}

func TestValidateTrendingIgnoresToken(t *testing.T) {
	c := Default()
	require.Empty(t, c.TMDB.Token)
	require.NoError(t, c.ValidateTrending())

	c.Trending.Backend = "redis"
	assert.ErrorContains(t, c.ValidateTrending(), "unknown trending backend")
}

type fakeSecrets struct {
	value *string
	err   error
	gotID string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotID = aws.ToString(in.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestResolveToken(t *testing.T) {
	arn := "arn:aws:secretsmanager:us-east-1:123:secret:tmdb"

	t.Run("literal token wins", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.Token = "literal"
		cfg.TMDB.TokenSecretARN = arn
		fake := &fakeSecrets{}
		require.NoError(t, cfg.ResolveToken(context.Background(), fake))
		assert.Equal(t, "literal", cfg.TMDB.Token)
		assert.Empty(t, fake.gotID)
	})

	t.Run("plain secret", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.TokenSecretARN = arn
		fake := &fakeSecrets{value: aws.String("plain-token\n")}
		require.NoError(t, cfg.ResolveToken(context.Background(), fake))
		assert.Equal(t, "plain-token", cfg.TMDB.Token)
		assert.Equal(t, arn, fake.gotID)
	})

	t.Run("json secret", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.TokenSecretARN = arn
		fake := &fakeSecrets{value: aws.String(`{"token":"json-token"}`)}
		require.NoError(t, cfg.ResolveToken(context.Background(), fake))
		assert.Equal(t, "json-token", cfg.TMDB.Token)
	})

	t.Run("json secret without token", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.TokenSecretARN = arn
		fake := &fakeSecrets{value: aws.String(`{"other":"x"}`)}
		assert.Error(t, cfg.ResolveToken(context.Background(), fake))
	})

	t.Run("api failure", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.TokenSecretARN = arn
		fake := &fakeSecrets{err: errors.New("access denied")}
		err := cfg.ResolveToken(context.Background(), fake)
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("nil secret string", func(t *testing.T) {
		cfg := Default()
		cfg.TMDB.TokenSecretARN = arn
		assert.Error(t, cfg.ResolveToken(context.Background(), &fakeSecrets{}))
	})
}
