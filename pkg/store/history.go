package store

import (
	"bytes"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

func init() {
	initDB["initialize input history table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	}
}

// NextSeq returns the sequence number the next history entry will get.
func (s *dbStore) NextSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		seq = tx.Bucket([]byte(bucketHistory)).Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddEntry appends a line to the input history and returns its sequence
// number.
func (s *dbStore) AddEntry(text string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(text))
	})
	return int(seq), err
}

// DelEntry deletes the history entry with the given sequence number.
func (s *dbStore) DelEntry(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketHistory)).Delete(marshalSeq(uint64(seq)))
	})
}

// Entry returns the text of the history entry with the given sequence number.
func (s *dbStore) Entry(seq int) (string, error) {
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketHistory)).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoMatchingEntry
		}
		text = string(v)
		return nil
	})
	return text, err
}

// Entries returns the history entries with sequence numbers in [from, upto).
func (s *dbStore) Entries(from, upto int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil && unmarshalSeq(k) < uint64(upto); k, v = c.Next() {
			entries = append(entries, Entry{Text: string(v), Seq: int(unmarshalSeq(k))})
		}
		return nil
	})
	return entries, err
}

// PrevEntry finds the last entry before the given sequence number (exclusive)
// with the given prefix.
func (s *dbStore) PrevEntry(upto int, prefix string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		p := []byte(prefix)

		var k, v []byte
		if k, _ = c.Seek(marshalSeq(uint64(upto))); k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil; k, v = c.Prev() {
			if bytes.HasPrefix(v, p) {
				entry = Entry{Text: string(v), Seq: int(unmarshalSeq(k))}
				return nil
			}
		}
		return ErrNoMatchingEntry
	})
	return entry, err
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
