package convostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/convoflow/convoflow/types"
)

// DynamoStore is the production Store backed by Amazon DynamoDB. The table's partition key is
// primary_channel and sort key is conversation_id.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDynamoStore builds a DynamoStore over an already-configured DynamoDB client.
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

// CreateInitial implements Store. Uniqueness is enforced by a ConditionExpression on the sort
// key attribute: this is the only code path in the system permitted to write a new
// conversation_id.
func (s *DynamoStore) CreateInitial(ctx context.Context, record *types.ConversationRecord) (InsertOutcome, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal record: %v", ErrStore, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: strPtr("attribute_not_exists(conversation_id)"),
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return AlreadyExists, nil
		}
		return 0, fmt.Errorf("%w: put item: %v", ErrStore, err)
	}

	return Inserted, nil
}

// UpdateAfterSend implements Store's S7 critical update: set conversation_status,
// task_complete, thread_id, provider_message_id, processing_time_ms, updated_at, and append
// one entry to messages via list_append (create-if-absent).
func (s *DynamoStore) UpdateAfterSend(ctx context.Context, key Key, patch SentUpdate) error {
	entryItem, err := attributevalue.MarshalMap(patch.AssistantEntry)
	if err != nil {
		return fmt.Errorf("%w: marshal assistant entry: %v", ErrStore, err)
	}

	values, err := attributevalue.MarshalMap(map[string]any{
		":status":      types.StatusInitialMessageSent,
		":complete":    1,
		":thread_id":   patch.ThreadID,
		":provider_id": patch.ProviderMessageID,
		":proc_ms":     patch.ProcessingTimeMs,
		":updated_at":  patch.UpdatedAt,
		":empty_list":  []map[string]any{},
		":new_message": []map[string]ddbtypes.AttributeValue{entryItem},
	})
	if err != nil {
		return fmt.Errorf("%w: marshal update values: %v", ErrStore, err)
	}

	pk, err := attributevalue.MarshalMap(map[string]string{
		"primary_channel": key.PrimaryChannel,
		"conversation_id": key.ConversationID,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal key: %v", ErrStore, err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key:       pk,
		UpdateExpression: strPtr(
			"SET conversation_status = :status, task_complete = :complete, thread_id = :thread_id, " +
				"provider_message_id = :provider_id, processing_time_ms = :proc_ms, updated_at = :updated_at, " +
				"messages = list_append(if_not_exists(messages, :empty_list), :new_message)",
		),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("%w: update item: %v", ErrStore, err)
	}

	return nil
}

// UpdateStatus implements Store's best-effort failure-path status transition.
func (s *DynamoStore) UpdateStatus(ctx context.Context, key Key, status types.ConversationStatus, updatedAt time.Time) error {
	pk, err := attributevalue.MarshalMap(map[string]string{
		"primary_channel": key.PrimaryChannel,
		"conversation_id": key.ConversationID,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal key: %v", ErrStore, err)
	}

	values, err := attributevalue.MarshalMap(map[string]any{
		":status":     status,
		":updated_at": updatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal update values: %v", ErrStore, err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       pk,
		UpdateExpression:          strPtr("SET conversation_status = :status, updated_at = :updated_at"),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("%w: update status: %v", ErrStore, err)
	}

	return nil
}

func strPtr(s string) *string { return &s }
