// Package queue defines the Work Queue contract shared by the Ingress Router (producer) and
// Channel Processor (consumer), plus the DLQ relationship implied by redelivery.
package queue

import (
	"context"
	"time"
)

// Message is one received queue message carrying a serialized Context Object.
type Message struct {
	// Body is the raw UTF-8 JSON body: the serialized Context Object.
	Body string

	// ReceiptHandle identifies this specific delivery, used for ExtendVisibility and Delete.
	ReceiptHandle string

	// ApproximateReceiveCount lets the Channel Processor distinguish a first delivery from a
	// redelivery.
	ApproximateReceiveCount int

	// Attributes carries the optional company_id/project_id/channel_method message attributes
	// set at send time.
	Attributes map[string]string
}

// SendInput is the payload for Send.
type SendInput struct {
	Body       string
	Attributes map[string]string
}

// Queue is the Work Queue adapter. A Queue instance is bound to one channel's queue URL.
type Queue interface {
	// Send enqueues one message. Used by the Ingress Router.
	Send(ctx context.Context, in SendInput) error

	// Receive long-polls for up to maxMessages messages.
	Receive(ctx context.Context, maxMessages int32, waitTime time.Duration) ([]Message, error)

	// ExtendVisibility extends the visibility timeout of receiptHandle to extension from now.
	// Used by the heartbeat.
	ExtendVisibility(ctx context.Context, receiptHandle string, extension time.Duration) error

	// Delete removes the message identified by receiptHandle, marking it processed.
	Delete(ctx context.Context, receiptHandle string) error
}

// Resolver resolves the Queue bound to a channel method.
type Resolver interface {
	For(channelMethod string) (Queue, bool)
}
