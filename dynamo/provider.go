package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ln80/domainstore/domain"
)

var (
	ErrScopeClosed = errors.New("scope already committed or rolled back")
)

const (
	aggregateRangeKey   = "AGG"
	commandRangeKeyPref = "CMD#"
	eventRangeKeyPref   = "EVT#"
)

func commandRangeKey(cmdID string) string {
	return commandRangeKeyPref + cmdID
}

func eventRangeKey(version int64) string {
	return fmt.Sprintf("%s%020d", eventRangeKeyPref, version)
}

type aggregateItem struct {
	Item
	Type string `dynamodbav:"atype"`
}

type commandItem struct {
	Item
	ID          string `dynamodbav:"cmdID"`
	AggregateID string `dynamodbav:"aggID"`
	Type        string `dynamodbav:"ctype"`
	Data        []byte `dynamodbav:"data"`
	CreatedAt   int64  `dynamodbav:"cat"`
}

type eventItem struct {
	Item
	ID          string `dynamodbav:"evtID"`
	AggregateID string `dynamodbav:"aggID"`
	Version     int64  `dynamodbav:"ver"`
	Type        string `dynamodbav:"etype"`
	Data        []byte `dynamodbav:"data"`
	CreatedAt   int64  `dynamodbav:"cat"`
}

// provider implements the domain.Provider interface on top of a DynamoDB table.
// Scopes buffer their writes in a session committed via TransactWriteItems;
// event puts are conditional on their version range key not existing, which is
// how a stale writer fails at commit time.
type provider struct {
	svc   ClientAPI
	table string
}

var _ domain.Provider = &provider{}

// NewProvider returns a DynamoDB storage provider on the given table.
// It may panic if any of the required parameters is missing.
func NewProvider(svc ClientAPI, table string) domain.Provider {
	if svc == nil {
		panic("dynamo provider invalid client: nil value")
	}
	if table == "" {
		panic("dynamo provider invalid table name: empty value")
	}
	return &provider{svc: svc, table: table}
}

// Scope implements the Scope method of the domain.Provider interface.
func (p *provider) Scope(ctx context.Context) (domain.Scope, error) {
	return &scope{
		svc:   p.svc,
		table: p.table,
		ses:   newSession(p.svc),
	}, nil
}

type scope struct {
	svc   ClientAPI
	table string
	ses   *session

	// pending keeps the event records buffered in this scope, so in-scope
	// reads observe them before commit.
	pending []domain.EventRecord

	closed bool
}

var _ domain.Scope = &scope{}

func (s *scope) conditionalPut(kind opKind, item interface{}, aggID string, version int64) error {
	m, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	expr, err := expression.
		NewBuilder().
		WithCondition(
			expression.AttributeNotExists(
				expression.Name(RangeKey),
			),
		).Build()
	if err != nil {
		return err
	}
	s.ses.put(kind, &types.Put{
		TableName:                 aws.String(s.table),
		Item:                      m,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, aggID, version)
	return nil
}

// EnsureAggregate implements the EnsureAggregate method of the domain.Scope interface.
// The record content is deterministic for a given aggregate, so the put does not
// need a condition: re-creating it writes the exact same item.
func (s *scope) EnsureAggregate(ctx context.Context, r domain.AggregateRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	out, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			HashKey:  &types.AttributeValueMemberS{Value: r.ID},
			RangeKey: &types.AttributeValueMemberS{Value: aggregateRangeKey},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if len(out.Item) > 0 {
		return nil
	}
	m, err := attributevalue.MarshalMap(aggregateItem{
		Item: Item{
			HashKey:  r.ID,
			RangeKey: aggregateRangeKey,
		},
		Type: r.Type,
	})
	if err != nil {
		return err
	}
	s.ses.put(opAggregate, &types.Put{
		TableName: aws.String(s.table),
		Item:      m,
	}, r.ID, 0)
	return nil
}

// InsertCommand implements the InsertCommand method of the domain.Scope interface.
func (s *scope) InsertCommand(ctx context.Context, r domain.CommandRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	return s.conditionalPut(opCommand, commandItem{
		Item: Item{
			HashKey:  r.AggregateID,
			RangeKey: commandRangeKey(r.ID),
		},
		ID:          r.ID,
		AggregateID: r.AggregateID,
		Type:        r.Type,
		Data:        r.Data,
		CreatedAt:   r.CreatedAt.UnixNano(),
	}, r.AggregateID, 0)
}

// InsertEvent implements the InsertEvent method of the domain.Scope interface.
func (s *scope) InsertEvent(ctx context.Context, r domain.EventRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	s.pending = append(s.pending, r)
	return s.conditionalPut(opEvent, eventItem{
		Item: Item{
			HashKey:  r.AggregateID,
			RangeKey: eventRangeKey(r.Version),
		},
		ID:          r.ID,
		AggregateID: r.AggregateID,
		Version:     r.Version,
		Type:        r.Type,
		Data:        r.Data,
		CreatedAt:   r.CreatedAt.UnixNano(),
	}, r.AggregateID, r.Version)
}

// CountEvents implements the CountEvents method of the domain.Scope interface.
// Buffered event puts of this scope are added on top of the committed count.
func (s *scope) CountEvents(ctx context.Context, aggID string) (int64, error) {
	if s.closed {
		return 0, ErrScopeClosed
	}
	expr, err := eventKeyCondition(aggID)
	if err != nil {
		return 0, err
	}
	count := int64(0)
	var lastKey map[string]types.AttributeValue
	for {
		out, err := s.svc.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ConsistentRead:            aws.Bool(true),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return 0, err
		}
		count += int64(out.Count)
		if lastKey = out.LastEvaluatedKey; len(lastKey) == 0 {
			break
		}
	}
	return count + s.ses.pendingEvents(aggID), nil
}

// LoadEvents implements the LoadEvents method of the domain.Scope interface.
// The version-prefixed range key makes the query return records in ascending
// version order.
func (s *scope) LoadEvents(ctx context.Context, aggID string) ([]domain.EventRecord, error) {
	if s.closed {
		return nil, ErrScopeClosed
	}
	expr, err := eventKeyCondition(aggID)
	if err != nil {
		return nil, err
	}
	p := dynamodb.NewQueryPaginator(s.svc, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
	items := []eventItem{}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		pitems := []eventItem{}
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &pitems); err != nil {
			return nil, err
		}
		items = append(items, pitems...)
	}

	recs := make([]domain.EventRecord, 0, len(items)+len(s.pending))
	for _, item := range items {
		recs = append(recs, domain.EventRecord{
			ID:          item.ID,
			AggregateID: item.AggregateID,
			Version:     item.Version,
			Type:        item.Type,
			Data:        item.Data,
			CreatedAt:   time.Unix(0, item.CreatedAt).UTC(),
		})
	}
	for _, r := range s.pending {
		if r.AggregateID == aggID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Version < recs[j].Version
	})
	return recs, nil
}

// Commit implements the Commit method of the domain.Scope interface.
func (s *scope) Commit(ctx context.Context) error {
	if s.closed {
		return ErrScopeClosed
	}
	s.closed = true
	return s.ses.commit(ctx)
}

// Rollback implements the Rollback method of the domain.Scope interface.
// Nothing has been written before commit, dropping the session is enough.
func (s *scope) Rollback(ctx context.Context) error {
	s.closed = true
	s.ses.ops = nil
	s.pending = nil
	return nil
}

func eventKeyCondition(aggID string) (expression.Expression, error) {
	return expression.
		NewBuilder().
		WithKeyCondition(
			expression.Key(HashKey).
				Equal(expression.Value(aggID)).
				And(expression.
					Key(RangeKey).
					BeginsWith(eventRangeKeyPref)),
		).Build()
}
