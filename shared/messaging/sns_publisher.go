package messaging

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fooddelivery/order-system/shared/contract"
)

var _ Publisher = (*SNSPublisher)(nil)

const maxBatchSize = 10

const (
	attrFamily = "family"
	attrKey    = "orderId"
)

// SNSPublisher publishes contract messages to an SNS FIFO topic. The
// order id is the message group, which keeps messages of one saga in
// order while sagas for different orders fan out concurrently.
type SNSPublisher struct {
	client   *sns.Client
	topicArn string
}

// NewSNSPublisher creates a publisher on an existing SNS client.
func NewSNSPublisher(client *sns.Client, topicArn string) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicArn: topicArn,
	}
}

// NewSNSPublisherFromEnv builds the SNS client from the ambient AWS
// config (works with LocalStack when AWS_ENDPOINT_URL is set).
func NewSNSPublisherFromEnv(ctx context.Context, topicArn string) (*SNSPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	return NewSNSPublisher(sns.NewFromConfig(cfg), topicArn), nil
}

// Publish encodes and publishes messages in batches.
func (p *SNSPublisher) Publish(ctx context.Context, msgs ...contract.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batches := splitToChunks(msgs, maxBatchSize)

	gr, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		batch := batch
		gr.Go(func() error {
			return p.batchPublish(ctx, batch)
		})
	}

	return gr.Wait()
}

func (p *SNSPublisher) batchPublish(ctx context.Context, msgs []contract.Message) error {
	requests := make([]types.PublishBatchRequestEntry, len(msgs))

	for i, msg := range msgs {
		frame, err := contract.Encode(msg)
		if err != nil {
			return errors.Wrap(err, "failed to encode message")
		}

		requests[i] = types.PublishBatchRequestEntry{
			Id:             aws.String(contract.NewEventID()),
			Message:        aws.String(base64.StdEncoding.EncodeToString(frame)),
			MessageGroupId: aws.String(msg.Key()),
			MessageAttributes: map[string]types.MessageAttributeValue{
				attrFamily: {
					DataType:    aws.String("String"),
					StringValue: aws.String(string(msg.Family())),
				},
				attrKey: {
					DataType:    aws.String("String"),
					StringValue: aws.String(msg.Key()),
				},
			},
		}
	}

	res, err := p.client.PublishBatch(ctx, &sns.PublishBatchInput{
		TopicArn:                   &p.topicArn,
		PublishBatchRequestEntries: requests,
	})
	if err != nil {
		return errors.Wrap(err, "failed to publish batch to SNS")
	}
	if len(res.Failed) > 0 {
		return errors.Errorf("%d of %d messages failed to publish", len(res.Failed), len(msgs))
	}

	return nil
}

// splitToChunks splits slice into chunks of specified size
func splitToChunks[T any](slice []T, chunkSize int) [][]T {
	var chunks [][]T
	for i := 0; i < len(slice); i += chunkSize {
		end := i + chunkSize
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[i:end])
	}
	return chunks
}
