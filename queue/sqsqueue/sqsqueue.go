// Package sqsqueue implements queue.Queue over Amazon SQS.
package sqsqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/convoflow/convoflow/queue"
)

// SQSQueue is the production queue.Queue backed by Amazon SQS, bound to one queue URL.
type SQSQueue struct {
	client   *sqs.Client
	queueURL string
	logger   *zap.Logger
}

// New builds an SQSQueue bound to queueURL.
func New(client *sqs.Client, queueURL string, logger *zap.Logger) *SQSQueue {
	return &SQSQueue{client: client, queueURL: queueURL, logger: logger}
}

// Send implements queue.Queue.
func (q *SQSQueue) Send(ctx context.Context, in queue.SendInput) error {
	attrs := make(map[string]sqstypes.MessageAttributeValue, len(in.Attributes))
	for k, v := range in.Attributes {
		attrs[k] = sqstypes.MessageAttributeValue{
			DataType:    strPtr("String"),
			StringValue: strPtr(v),
		}
	}

	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          &q.queueURL,
		MessageBody:       &in.Body,
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sqsqueue: send message: %w", err)
	}
	return nil
}

// Receive implements queue.Queue.
func (q *SQSQueue) Receive(ctx context.Context, maxMessages int32, waitTime time.Duration) ([]queue.Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              &q.queueURL,
		MaxNumberOfMessages:   maxMessages,
		WaitTimeSeconds:       int32(waitTime / time.Second),
		MessageAttributeNames: []string{"All"},
		AttributeNames:        []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, fmt.Errorf("sqsqueue: receive message: %w", err)
	}

	messages := make([]queue.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		receiveCount := 1
		if v, ok := m.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
			fmt.Sscanf(v, "%d", &receiveCount)
		}

		attrs := make(map[string]string, len(m.MessageAttributes))
		for k, v := range m.MessageAttributes {
			if v.StringValue != nil {
				attrs[k] = *v.StringValue
			}
		}

		body := ""
		if m.Body != nil {
			body = *m.Body
		}
		receipt := ""
		if m.ReceiptHandle != nil {
			receipt = *m.ReceiptHandle
		}

		messages = append(messages, queue.Message{
			Body:                    body,
			ReceiptHandle:           receipt,
			ApproximateReceiveCount: receiveCount,
			Attributes:              attrs,
		})
	}

	return messages, nil
}

// ExtendVisibility implements queue.Queue.
func (q *SQSQueue) ExtendVisibility(ctx context.Context, receiptHandle string, extension time.Duration) error {
	_, err := q.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          &q.queueURL,
		ReceiptHandle:     &receiptHandle,
		VisibilityTimeout: int32(extension / time.Second),
	})
	if err != nil {
		return fmt.Errorf("sqsqueue: change message visibility: %w", err)
	}
	return nil
}

// Delete implements queue.Queue.
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &q.queueURL,
		ReceiptHandle: &receiptHandle,
	})
	if err != nil {
		return fmt.Errorf("sqsqueue: delete message: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
