package dynamo

import (
	"context"
	"testing"

	"github.com/ln80/domainstore/testutil"
)

func TestProvider(t *testing.T) {
	if dbsvc == nil {
		t.Skip("dynamodb test endpoint not found")
	}

	withTable(t, dbsvc, func(table string) {
		testutil.ProviderTest(t, context.Background(), NewProvider(dbsvc, table))
	})
}

func TestProvider_Concurrency(t *testing.T) {
	if dbsvc == nil {
		t.Skip("dynamodb test endpoint not found")
	}

	withTable(t, dbsvc, func(table string) {
		testutil.ProviderConcurrencyTest(t, context.Background(), NewProvider(dbsvc, table))
	})
}

func TestEventRangeKey(t *testing.T) {
	// version-prefixed range keys must sort lexicographically in version order
	if k1, k2 := eventRangeKey(9), eventRangeKey(10); !(k1 < k2) {
		t.Fatalf("expect %s be lower than %s", k1, k2)
	}
	if k1, k2 := eventRangeKey(99), eventRangeKey(100); !(k1 < k2) {
		t.Fatalf("expect %s be lower than %s", k1, k2)
	}
}
