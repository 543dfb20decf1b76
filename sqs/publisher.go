package sqs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ln80/domainstore/bus"
)

const (
	// SQS size Msg Limit is 256 KB.
	// 6KB for meta-data + safety margin
	MsgSizeLimit = 256000 // 250 KB

	// SQS size Msg Batch Limit is 256 KB.
	// 6KB for meta-data + safety margin
	MsgBatchSizeLimit = 256000 // 250 KB

	// SQS Msg batch entries limit is 10
	MsgBatchEntriesLimit = 10
)

var (
	ErrDestQueueNotFound          = errors.New("destination queue not found")
	ErrPublishMsgFailed           = errors.New("publish messages failed")
	ErrPublishInvalidMsgSizeLimit = errors.New("publish failed, message exceeds size limit")
)

// publisher implements the bus.Publisher interface on top of SQS queues.
// Destinations are resolved through a destination-to-queue-URL map.
type publisher struct {
	svc    ClientAPI
	queues map[string]string
}

var _ bus.Publisher = &publisher{}

// NewPublisher returns an SQS-based integration message publisher.
// It may panic if the SQS client is missing.
func NewPublisher(svc ClientAPI, queues map[string]string) bus.Publisher {
	if svc == nil {
		panic("message publisher invalid SQS client: nil value")
	}
	return &publisher{
		svc:    svc,
		queues: queues,
	}
}

// Publish implements the Publish method of the bus.Publisher interface.
func (p *publisher) Publish(ctx context.Context, dest string, msgs []bus.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if dest == "" {
		return bus.ErrDestinationRequired
	}

	// skip publish if queues map is empty
	if p.queues == nil {
		return nil
	}

	queue, ok := p.queues[dest]
	if !ok {
		return fmt.Errorf("%w: %s in %v", ErrDestQueueNotFound, dest, p.queues)
	}

	entries := make([]types.SendMessageBatchRequestEntry, 0)
	totalSize := 0
	appendFn := func(entry types.SendMessageBatchRequestEntry, entrySize int) {
		entries = append(entries, entry)
		totalSize += entrySize
	}
	resetFn := func() {
		entries = make([]types.SendMessageBatchRequestEntry, 0)
		totalSize = 0
	}

	for _, msg := range msgs {
		msgSize := len(msg.Body)
		if msgSize > MsgSizeLimit {
			return fmt.Errorf("%w: message details: (type: %s, id: %s, size: %d)",
				ErrPublishInvalidMsgSizeLimit, msg.Type, msg.ID, msgSize)
		}

		attrs := map[string]types.MessageAttributeValue{
			"Type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Type),
			},
		}
		for k, v := range msg.Attributes {
			attrs[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}

		entry := types.SendMessageBatchRequestEntry{
			Id:                     aws.String(msg.ID),
			MessageDeduplicationId: aws.String(msg.ID),
			MessageGroupId:         aws.String(msg.Attributes["AggID"]),
			MessageBody:            aws.String(string(msg.Body)),
			MessageAttributes:      attrs,
		}

		sizeLimitAlreadyReached := false
		if sizeLimitAlreadyReached = totalSize+msgSize > MsgBatchSizeLimit; !sizeLimitAlreadyReached {
			appendFn(entry, msgSize)
		}
		if len(entries) == MsgBatchEntriesLimit || sizeLimitAlreadyReached {
			if err := p.doSendMessageBatch(ctx, &sqs.SendMessageBatchInput{
				Entries:  entries,
				QueueUrl: aws.String(queue),
			}); err != nil {
				return err
			}
			resetFn()

			if sizeLimitAlreadyReached {
				appendFn(entry, msgSize)
			}
		}
	}

	if len(entries) == 0 {
		return nil
	}

	return p.doSendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		Entries:  entries,
		QueueUrl: aws.String(queue),
	})
}

func (p *publisher) doSendMessageBatch(ctx context.Context, input *sqs.SendMessageBatchInput) error {
	out, err := p.svc.SendMessageBatch(ctx, input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublishMsgFailed, err)
	}

	attempts := 1
	for out != nil && len(out.Failed) > 0 && attempts <= 5 {
		time.Sleep(time.Duration(attempts) * 50 * time.Millisecond)
		out, err = p.svc.SendMessageBatch(ctx, input)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPublishMsgFailed, err)
		}
		attempts++
	}

	if out != nil && len(out.Failed) > 0 {
		return fmt.Errorf("%w: failed entries: %v", ErrPublishMsgFailed, out.Failed)
	}
	return nil
}
