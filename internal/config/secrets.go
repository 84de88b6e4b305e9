package config

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
)

// SecretsManagerClient is the subset of the Secrets Manager API used here.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NeedsSecret reports whether ResolveToken would call Secrets Manager.
func (c *Config) NeedsSecret() bool {
	return c.TMDB.Token == "" && c.TMDB.TokenSecretARN != ""
}

// ResolveToken fills TMDB.Token from Secrets Manager when no literal token
// is configured. The secret may be the bare token or JSON carrying a
// "token" (or "api_key") field.
func (c *Config) ResolveToken(ctx context.Context, client SecretsManagerClient) error {
	if !c.NeedsSecret() {
		return nil
	}
	if client == nil {
		return errors.New("secrets manager client is required to resolve tmdb.token_secret_arn")
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(c.TMDB.TokenSecretARN),
	})
	if err != nil {
		return errors.Wrapf(err, "get secret %s", c.TMDB.TokenSecretARN)
	}
	if out.SecretString == nil {
		return errors.Newf("secret %s has no string value", c.TMDB.TokenSecretARN)
	}

	token, err := parseSecret(aws.ToString(out.SecretString))
	if err != nil {
		return errors.Wrapf(err, "secret %s", c.TMDB.TokenSecretARN)
	}
	c.TMDB.Token = token
	return nil
}

func parseSecret(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("empty secret")
		}
		return raw, nil
	}

	var fields struct {
		Token  string `json:"token"`
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", errors.Wrap(err, "unmarshal secret JSON")
	}
	if fields.Token != "" {
		return fields.Token, nil
	}
	if fields.APIKey != "" {
		return fields.APIKey, nil
	}
	return "", errors.New("secret JSON has neither token nor api_key")
}
