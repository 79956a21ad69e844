package store

import (
	bolt "go.etcd.io/bbolt"
)

func init() {
	initDB["initialize definition table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketDefs))
		return err
	}
}

// SaveDef records the text of a definition, replacing any earlier one.
func (s *dbStore) SaveDef(label, text string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDefs)).Put([]byte(label), []byte(text))
	})
}

// Def returns the saved text of a definition.
func (s *dbStore) Def(label string) (string, error) {
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketDefs)).Get([]byte(label))
		if v == nil {
			return ErrNoDef
		}
		text = string(v)
		return nil
	})
	return text, err
}

// DelDef deletes a saved definition. Deleting one that does not exist is not
// an error.
func (s *dbStore) DelDef(label string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDefs)).Delete([]byte(label))
	})
}

// Defs returns all saved definitions, sorted by label.
func (s *dbStore) Defs() ([]Def, error) {
	var defs []Def
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDefs)).ForEach(func(k, v []byte) error {
			defs = append(defs, Def{Label: string(k), Text: string(v)})
			return nil
		})
	})
	return defs, err
}
