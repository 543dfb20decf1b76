package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ln80/domainstore/domain"
)

type fakeClient struct {
	ClientAPI

	puts      int
	transacts int
	err       error
}

func (c *fakeClient) PutItem(ctx context.Context,
	params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.puts++
	return &dynamodb.PutItemOutput{}, c.err
}

func (c *fakeClient) TransactWriteItems(ctx context.Context,
	params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.transacts++
	return &dynamodb.TransactWriteItemsOutput{}, c.err
}

func testPut(table string) *types.Put {
	return &types.Put{
		TableName: aws.String(table),
		Item: map[string]types.AttributeValue{
			HashKey:  &types.AttributeValueMemberS{Value: "agg1"},
			RangeKey: &types.AttributeValueMemberS{Value: eventRangeKey(1)},
		},
	}
}

func TestSession_Commit(t *testing.T) {
	ctx := context.Background()

	// empty session commit is a no-op
	svc := &fakeClient{}
	ses := newSession(svc)
	if err := ses.commit(ctx); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if svc.puts != 0 || svc.transacts != 0 {
		t.Fatalf("expect no write be issued, got %d puts and %d transactions", svc.puts, svc.transacts)
	}

	// a single op commits as a plain put
	ses = newSession(svc)
	ses.put(opCommand, testPut("table"), "agg1", 0)
	if err := ses.commit(ctx); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if svc.puts != 1 || svc.transacts != 0 {
		t.Fatalf("expect a single put be issued, got %d puts and %d transactions", svc.puts, svc.transacts)
	}

	// multiple ops commit in a single transaction
	ses = newSession(svc)
	ses.put(opCommand, testPut("table"), "agg1", 0)
	ses.put(opEvent, testPut("table"), "agg1", 1)
	if err := ses.commit(ctx); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if svc.puts != 1 || svc.transacts != 1 {
		t.Fatalf("expect a single transaction be issued, got %d puts and %d transactions", svc.puts, svc.transacts)
	}
}

func TestSession_CommitConflict(t *testing.T) {
	ctx := context.Background()

	code := "ConditionalCheckFailed"
	svc := &fakeClient{
		err: &types.TransactionCanceledException{
			Message: aws.String("transaction canceled"),
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: &code},
			},
		},
	}

	// the failed item is the event put: another writer took the version
	ses := newSession(svc)
	ses.put(opCommand, testPut("table"), "agg1", 0)
	ses.put(opEvent, testPut("table"), "agg1", 3)
	err := ses.commit(ctx)
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expect err be %v, got %v", domain.ErrConcurrencyConflict, err)
	}

	// a condition failure elsewhere stays a storage error
	ses = newSession(svc)
	ses.put(opCommand, testPut("table"), "agg1", 0)
	ses.put(opEvent, testPut("table"), "agg1", 3)
	ses.ops[1], ses.ops[0] = ses.ops[0], ses.ops[1]
	err = ses.commit(ctx)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expect err not be %v, got %v", domain.ErrConcurrencyConflict, err)
	}
}

func TestSession_PendingEvents(t *testing.T) {
	ses := newSession(&fakeClient{})
	ses.put(opAggregate, testPut("table"), "agg1", 0)
	ses.put(opEvent, testPut("table"), "agg1", 1)
	ses.put(opEvent, testPut("table"), "agg1", 2)
	ses.put(opEvent, testPut("table"), "agg2", 1)

	if want, got := int64(2), ses.pendingEvents("agg1"); want != got {
		t.Fatalf("expect pending events count be %d, got %d", want, got)
	}
	if want, got := int64(1), ses.pendingEvents("agg2"); want != got {
		t.Fatalf("expect pending events count be %d, got %d", want, got)
	}
}
