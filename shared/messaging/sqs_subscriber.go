package messaging

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"

	"github.com/fooddelivery/order-system/shared/contract"
)

type sqsMessage struct {
	Message types.Message
	Msg     contract.Message
	Err     error
}

// SQSSubscriber consumes contract messages from an SQS FIFO queue and
// feeds them to a Handler. A FIFO queue holds back the next message of a
// group until the previous one is deleted, so handlers for one order id
// run serialized while different orders are processed concurrently.
//
// Delivery is at-least-once: a message whose handler fails is never
// deleted; its visibility timeout is extended and it is redelivered.
type SQSSubscriber struct {
	mux              sync.RWMutex
	inboundMessages  chan *sqsMessage
	outboundMessages chan *sqsMessage
	cancel           context.CancelFunc
	running          atomic.Bool
	options          *sqsSubscriberOptions

	client   *sqs.Client
	queueURL string
	handler  Handler
}

type sqsSubscriberOptions struct {
	workers                        int32
	readers                        int32
	cleaners                       int32
	maxNumberOfMessages            int32
	waitTimeSeconds                int32
	visibilityTimeout              int32
	sleepTimeAfterEmptyReceive     time.Duration
	sleepTimeAfterError            time.Duration
	ack                            bool
	extendVisibilityTimeoutOnError bool
	receiveCountRange              int32
	visibilityTimeoutOffset        int32
	maxVisibilityTimeout           int32
}

func defaultSubscriberOptions() *sqsSubscriberOptions {
	return &sqsSubscriberOptions{
		workers:                        4,
		readers:                        1,
		cleaners:                       2,
		maxNumberOfMessages:            10,
		waitTimeSeconds:                20,
		visibilityTimeout:              30,
		sleepTimeAfterEmptyReceive:     time.Second,
		sleepTimeAfterError:            5 * time.Second,
		ack:                            true,
		extendVisibilityTimeoutOnError: true,
		receiveCountRange:              3,
		visibilityTimeoutOffset:        30,
		maxVisibilityTimeout:           300,
	}
}

type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithWorkers(workers int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.workers = workers
	}
}

func WithReaders(readers int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.readers = readers
	}
}

func WithVisibilityTimeout(timeout int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.visibilityTimeout = timeout
	}
}

// NewSQSSubscriber creates a subscriber on an existing SQS client.
func NewSQSSubscriber(client *sqs.Client, queueURL string, handler Handler, opts ...SQSSubscriberOption) *SQSSubscriber {
	options := defaultSubscriberOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &SQSSubscriber{
		inboundMessages:  make(chan *sqsMessage, options.workers),
		outboundMessages: make(chan *sqsMessage, options.workers),
		options:          options,
		client:           client,
		queueURL:         queueURL,
		handler:          handler,
	}
}

// NewSQSSubscriberFromEnv builds the SQS client from the ambient AWS config.
func NewSQSSubscriberFromEnv(ctx context.Context, queueURL string, handler Handler, opts ...SQSSubscriberOption) (*SQSSubscriber, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	return NewSQSSubscriber(sqs.NewFromConfig(cfg), queueURL, handler, opts...), nil
}

// Start launches the reader, worker and cleaner goroutines.
func (s *SQSSubscriber) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("subscriber is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mux.Lock()
	s.cancel = cancel
	s.mux.Unlock()

	for i := int32(0); i < s.options.readers; i++ {
		go s.readLoop(ctx)
	}
	for i := int32(0); i < s.options.workers; i++ {
		go s.workLoop(ctx)
	}
	for i := int32(0); i < s.options.cleaners; i++ {
		go s.cleanLoop(ctx)
	}

	return nil
}

// Stop cancels the consumption goroutines.
func (s *SQSSubscriber) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mux.RLock()
	cancel := s.cancel
	s.mux.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (s *SQSSubscriber) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.read(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "sqs receive failed", "queue", s.queueURL, "error", err)
			time.Sleep(s.options.sleepTimeAfterError)
		}
	}
}

func (s *SQSSubscriber) workLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.inboundMessages:
			if message == nil {
				continue
			}
			s.handle(ctx, message)
		}
	}
}

func (s *SQSSubscriber) cleanLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.outboundMessages:
			if message == nil {
				continue
			}
			if err := s.clean(ctx, message); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "sqs cleanup failed", "queue", s.queueURL, "error", err)
			}
		}
	}
}

func (s *SQSSubscriber) read(ctx context.Context) error {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: s.options.maxNumberOfMessages,
		WaitTimeSeconds:     s.options.waitTimeSeconds,
		VisibilityTimeout:   s.options.visibilityTimeout,
		AttributeNames: []types.QueueAttributeName{
			"ApproximateReceiveCount",
			"ApproximateFirstReceiveTimestamp",
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to receive message from SQS")
	}

	if len(output.Messages) == 0 {
		time.Sleep(s.options.sleepTimeAfterEmptyReceive)
		return nil
	}

	for _, message := range output.Messages {
		inbound := &sqsMessage{Message: message}

		// A payload that cannot be decoded is never applied; it keeps
		// its error so the cleaner leaves it for redelivery/DLQ.
		frame, err := base64.StdEncoding.DecodeString(aws.ToString(message.Body))
		if err != nil {
			inbound.Err = errors.Wrap(err, "message body is not base64")
		} else if msg, err := contract.Decode(frame); err != nil {
			inbound.Err = err
		} else {
			inbound.Msg = msg
		}

		if inbound.Err != nil {
			slog.WarnContext(ctx, "undecodable message left for redelivery",
				"queue", s.queueURL,
				"messageId", aws.ToString(message.MessageId),
				"error", inbound.Err)
			select {
			case s.outboundMessages <- inbound:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		select {
		case s.inboundMessages <- inbound:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (s *SQSSubscriber) handle(ctx context.Context, message *sqsMessage) {
	s.mux.RLock()
	handler := s.handler
	s.mux.RUnlock()

	if handler == nil {
		message.Err = errors.New("no handler configured")
	} else {
		message.Err = handler.Handle(ctx, message.Msg)
	}

	select {
	case s.outboundMessages <- message:
	case <-ctx.Done():
	}
}

func (s *SQSSubscriber) clean(ctx context.Context, message *sqsMessage) error {
	if message.Err != nil {
		if s.options.extendVisibilityTimeoutOnError {
			receiveCount, err := strconv.Atoi(message.Message.Attributes["ApproximateReceiveCount"])
			if err != nil {
				receiveCount = 1
			}

			visibilityTimeout := s.options.visibilityTimeout
			visibilityTimeout += (int32(receiveCount) / s.options.receiveCountRange) * s.options.visibilityTimeoutOffset

			if visibilityTimeout > s.options.maxVisibilityTimeout {
				visibilityTimeout = s.options.maxVisibilityTimeout
			}

			_, err = s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
				QueueUrl:          &s.queueURL,
				ReceiptHandle:     message.Message.ReceiptHandle,
				VisibilityTimeout: visibilityTimeout,
			})
			if err != nil {
				return errors.Wrap(err, "failed to extend visibility timeout")
			}
		}
		return nil
	}

	if s.options.ack {
		_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      &s.queueURL,
			ReceiptHandle: message.Message.ReceiptHandle,
		})
		if err != nil {
			return errors.Wrap(err, "failed to delete message from SQS")
		}
	}

	return nil
}
