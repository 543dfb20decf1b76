package domainstore

import (
	"github.com/ln80/domainstore/domain"
	"github.com/ln80/domainstore/dynamo"
	"github.com/ln80/domainstore/json"
	"github.com/ln80/domainstore/memory"
	"github.com/ln80/domainstore/rdb"
	"gorm.io/gorm"
)

// NewRDBStore returns a domain store on top of a relational database.
// The gorm handle may be Postgres or SQLite backed, see rdb.OpenPostgres
// and rdb.OpenSQLite.
func NewRDBStore(db *gorm.DB, opts ...domain.StoreOption) domain.Store {
	return domain.NewStore(rdb.NewProvider(db), json.NewSerializer(), opts...)
}

// NewDynamoDBStore returns a domain store on top of a DynamoDB table.
// It may panic if any of the required parameters is missing.
func NewDynamoDBStore(svc dynamo.ClientAPI, table string, opts ...domain.StoreOption) domain.Store {
	return domain.NewStore(dynamo.NewProvider(svc, table), json.NewSerializer(), opts...)
}

// NewInMemoryStore returns an in-memory domain store, mainly used for tests.
func NewInMemoryStore(opts ...domain.StoreOption) domain.Store {
	return domain.NewStore(memory.NewProvider(), json.NewSerializer(), opts...)
}
