package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// ArchivePublisher defines the interface for publishing enriched events to
// the archive queue
type ArchivePublisher interface {
	PublishArchiveEvent(ctx context.Context, event *domain.ArchiveEvent) error
}

// QueueConsumer defines the interface for consuming messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
