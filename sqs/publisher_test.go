package sqs

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ln80/domainstore/bus"
)

type fakeClient struct {
	inputs []*sqs.SendMessageBatchInput
	err    error
}

func (c *fakeClient) SendMessageBatch(ctx context.Context,
	params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	c.inputs = append(c.inputs, params)
	return &sqs.SendMessageBatchOutput{}, c.err
}

func genMsgs(count int) []bus.Message {
	msgs := make([]bus.Message, count)
	for i := 0; i < count; i++ {
		msgs[i] = bus.Message{
			ID:   strconv.Itoa(i),
			Type: "testutil.Event1",
			Body: []byte(`{"val":"` + strconv.Itoa(i) + `"}`),
			Attributes: map[string]string{
				"AggID": "agg1",
			},
		}
	}
	return msgs
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	queues := map[string]string{
		"dest1": "http://queue.url/1",
	}

	t.Run("basic", func(t *testing.T) {
		svc := &fakeClient{}
		pub := NewPublisher(svc, queues)

		if err := pub.Publish(ctx, "dest1", genMsgs(3)); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := 1, len(svc.inputs); want != got {
			t.Fatalf("expect %d batch be sent, got %d", want, got)
		}
		in := svc.inputs[0]
		if want, got := queues["dest1"], *in.QueueUrl; want != got {
			t.Fatalf("expect queue url be %s, got %s", want, got)
		}
		if want, got := 3, len(in.Entries); want != got {
			t.Fatalf("expect %d entries, got %d", want, got)
		}
		entry := in.Entries[0]
		if want, got := "agg1", *entry.MessageGroupId; want != got {
			t.Fatalf("expect message group id be %s, got %s", want, got)
		}
		if want, got := "testutil.Event1", *entry.MessageAttributes["Type"].StringValue; want != got {
			t.Fatalf("expect type attribute be %s, got %s", want, got)
		}
	})

	t.Run("split oversized batch", func(t *testing.T) {
		svc := &fakeClient{}
		pub := NewPublisher(svc, queues)

		if err := pub.Publish(ctx, "dest1", genMsgs(25)); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := 3, len(svc.inputs); want != got {
			t.Fatalf("expect %d batches be sent, got %d", want, got)
		}
		total := 0
		for _, in := range svc.inputs {
			if len(in.Entries) > MsgBatchEntriesLimit {
				t.Fatalf("expect batch size be at most %d, got %d", MsgBatchEntriesLimit, len(in.Entries))
			}
			total += len(in.Entries)
		}
		if want, got := 25, total; want != got {
			t.Fatalf("expect %d entries in total, got %d", want, got)
		}
	})

	t.Run("empty and invalid destinations", func(t *testing.T) {
		svc := &fakeClient{}
		pub := NewPublisher(svc, queues)

		if err := pub.Publish(ctx, "dest1", nil); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if err := pub.Publish(ctx, "", genMsgs(1)); !errors.Is(err, bus.ErrDestinationRequired) {
			t.Fatalf("expect err be %v, got %v", bus.ErrDestinationRequired, err)
		}
		if err := pub.Publish(ctx, "unknown", genMsgs(1)); !errors.Is(err, ErrDestQueueNotFound) {
			t.Fatalf("expect err be %v, got %v", ErrDestQueueNotFound, err)
		}
		if len(svc.inputs) != 0 {
			t.Fatalf("expect no batch be sent, got %d", len(svc.inputs))
		}
	})

	t.Run("oversized message", func(t *testing.T) {
		svc := &fakeClient{}
		pub := NewPublisher(svc, queues)

		msgs := genMsgs(1)
		msgs[0].Body = make([]byte, MsgSizeLimit+1)
		if err := pub.Publish(ctx, "dest1", msgs); !errors.Is(err, ErrPublishInvalidMsgSizeLimit) {
			t.Fatalf("expect err be %v, got %v", ErrPublishInvalidMsgSizeLimit, err)
		}
	})

	t.Run("send failure", func(t *testing.T) {
		svc := &fakeClient{err: errors.New("network down")}
		pub := NewPublisher(svc, queues)

		if err := pub.Publish(ctx, "dest1", genMsgs(12)); !errors.Is(err, ErrPublishMsgFailed) {
			t.Fatalf("expect err be %v, got %v", ErrPublishMsgFailed, err)
		}
	})
}
