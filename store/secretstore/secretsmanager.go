package secretstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// SecretsManagerStore is the production Store backed by AWS Secrets Manager. The secret id
// looked up is the configured prefix followed by ref.
type SecretsManagerStore struct {
	client *secretsmanager.Client
	prefix string
	logger *zap.Logger
}

// NewSecretsManagerStore builds a SecretsManagerStore. prefix is prepended to every ref
// before lookup, letting the Config Store carry short logical names.
func NewSecretsManagerStore(client *secretsmanager.Client, prefix string, logger *zap.Logger) *SecretsManagerStore {
	return &SecretsManagerStore{client: client, prefix: prefix, logger: logger}
}

// Get implements Store.
func (s *SecretsManagerStore) Get(ctx context.Context, ref string) (json.RawMessage, error) {
	id := s.prefix + ref
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &id})
	if err != nil {
		return nil, fmt.Errorf("secretstore: get secret %q: %w", ref, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secretstore: secret %q has no string value", ref)
	}
	return json.RawMessage(*out.SecretString), nil
}
