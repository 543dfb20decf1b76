package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ln80/domainstore/domain"
)

type opKind int

const (
	opAggregate opKind = iota
	opCommand
	opEvent
)

type writeOp struct {
	kind    opKind
	put     *types.Put
	aggID   string
	version int64
}

// session buffers the write operations of a scope and commits them in a single
// TransactWriteItems call, so conditional puts are re-validated by the database
// at commit time.
type session struct {
	svc ClientAPI
	ops []writeOp
}

func newSession(svc ClientAPI) *session {
	return &session{svc: svc}
}

func (s *session) put(kind opKind, p *types.Put, aggID string, version int64) {
	s.ops = append(s.ops, writeOp{
		kind:    kind,
		put:     p,
		aggID:   aggID,
		version: version,
	})
}

func (s *session) pendingEvents(aggID string) int64 {
	count := int64(0)
	for _, op := range s.ops {
		if op.kind == opEvent && op.aggID == aggID {
			count++
		}
	}
	return count
}

func (s *session) commit(ctx context.Context) error {
	count := len(s.ops)
	if count == 0 {
		return nil
	}

	if count == 1 {
		op := s.ops[0]
		if _, err := s.svc.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 op.put.TableName,
			Item:                      op.put.Item,
			ConditionExpression:       op.put.ConditionExpression,
			ExpressionAttributeNames:  op.put.ExpressionAttributeNames,
			ExpressionAttributeValues: op.put.ExpressionAttributeValues,
		}); err != nil {
			return s.classify(err, []int{0})
		}
		return nil
	}

	txItems := make([]types.TransactWriteItem, count)
	for i, op := range s.ops {
		txItems[i] = types.TransactWriteItem{
			Put: op.put,
		}
	}
	if _, err := s.svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: txItems,
	}); err != nil {
		return s.classify(err, conditionFailedIndexes(err))
	}
	return nil
}

// classify maps a commit failure to the domain error taxonomy: a condition
// failure on an event put means another writer took the version; anything
// else is a storage failure reported as is.
func (s *session) classify(err error, failedIdxs []int) error {
	if !IsConditionCheckFailure(err) {
		return err
	}
	for _, i := range failedIdxs {
		if i < 0 || i >= len(s.ops) {
			continue
		}
		if op := s.ops[i]; op.kind == opEvent {
			return domain.Err(domain.ErrConcurrencyConflict, op.aggID,
				"version already taken", op.version)
		}
	}
	return err
}
