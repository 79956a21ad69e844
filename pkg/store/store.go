// Package store keeps the persistent state of texgraph sessions: the history
// of input lines and the last good text of each definition.
package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"src.texgraph.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[store] ")

// Bucket names.
const (
	bucketHistory = "history"
	bucketDefs    = "defs"
)

// ErrNoMatchingEntry is returned when a history query has no result.
var ErrNoMatchingEntry = errors.New("no matching history entry")

// ErrNoDef is returned by (Store).Def when there is no such definition.
var ErrNoDef = errors.New("no such definition")

// Store is the interface of the storage service.
type Store interface {
	NextSeq() (int, error)
	AddEntry(text string) (int, error)
	DelEntry(seq int) error
	Entry(seq int) (string, error)
	Entries(from, upto int) ([]Entry, error)
	PrevEntry(upto int, prefix string) (Entry, error)

	SaveDef(label, text string) error
	Def(label string) (string, error)
	DelDef(label string) error
	Defs() ([]Def, error)
}

// DBStore is a Store backed by a database file. It must be closed after use.
type DBStore interface {
	Store
	Close() error
}

// Entry is an item of the input history.
type Entry struct {
	Text string
	Seq  int
}

// Def is a saved definition.
type Def struct {
	Label string
	Text  string
}

// Functions run when opening a database, keyed by what they do.
var initDB = map[string]func(*bolt.Tx) error{}

type dbStore struct {
	db *bolt.DB
}

// NewStore opens the database at the given path, creating it if needed.
func NewStore(dbname string) (DBStore, error) {
	db, err := bolt.Open(dbname, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return NewStoreFromDB(db)
}

// NewStoreFromDB creates a Store from an open database.
func NewStoreFromDB(db *bolt.DB) (DBStore, error) {
	logger.Println("initializing store")
	defer logger.Println("initialized store")
	err := db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &dbStore{db}, nil
}

func (s *dbStore) Close() error {
	return s.db.Close()
}
