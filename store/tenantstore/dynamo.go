package tenantstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/convoflow/convoflow/types"
)

// DynamoStore is the production Store backed by Amazon DynamoDB. The table's partition key
// is company_id and sort key is project_id.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDynamoStore builds a DynamoStore over an already-configured DynamoDB client.
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

type tenantConfigItem struct {
	CompanyID       string                                `dynamodbav:"company_id"`
	ProjectID       string                                `dynamodbav:"project_id"`
	ProjectStatus   types.ProjectStatus                   `dynamodbav:"project_status"`
	AllowedChannels []types.ChannelMethod                 `dynamodbav:"allowed_channels"`
	ChannelConfigs  map[string]types.ChannelConfig         `dynamodbav:"channel_configs"`
	AIConfig        types.AIConfig                         `dynamodbav:"ai_config"`
	TenantReps      []types.TenantRep                      `dynamodbav:"tenant_reps,omitempty"`
	RateLimitHints  map[string]int                         `dynamodbav:"rate_limit_hints,omitempty"`
}

// Get reads the tenant config row for (companyID, projectID).
func (s *DynamoStore) Get(ctx context.Context, companyID, projectID string) (*types.TenantConfig, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"company_id": companyID,
		"project_id": projectID,
	})
	if err != nil {
		return nil, fmt.Errorf("tenantstore: marshal key: %w", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("tenantstore: get item: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item tenantConfigItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("tenantstore: unmarshal item: %w", err)
	}

	channelConfigs := make(map[types.ChannelMethod]types.ChannelConfig, len(item.ChannelConfigs))
	for k, v := range item.ChannelConfigs {
		channelConfigs[types.ChannelMethod(k)] = v
	}

	return &types.TenantConfig{
		CompanyID:       item.CompanyID,
		ProjectID:       item.ProjectID,
		ProjectStatus:   item.ProjectStatus,
		AllowedChannels: item.AllowedChannels,
		ChannelConfigs:  channelConfigs,
		AIConfig:        item.AIConfig,
		TenantReps:      item.TenantReps,
		RateLimitHints:  item.RateLimitHints,
	}, nil
}
