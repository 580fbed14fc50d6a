package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketPending  = []byte("pending")
	bucketFinished = []byte("finished")
	bucketMeta     = []byte("meta")
)

var keyNextID = []byte("next_id")

// BoltStore is the file-per-queue embedded database backend, with
// idempotent schema creation on open.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if absent) the backing store at path, ensuring
// both logical tables exist.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open store: %v", ferr.ErrOSError, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPending); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketFinished); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init store: %v", ferr.ErrOSError, err)
	}

	return &BoltStore{db: db}, nil
}

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func put(db *bolt.DB, bucket []byte, t *model.Task) error {
	return db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucket).Put(idKey(t.ID), data)
	})
}

func get(db *bolt.DB, bucket []byte, id uint64) (*model.Task, error) {
	var task model.Task
	found := false
	err := db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(idKey(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &task)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}
	if !found {
		return nil, ferr.ErrNotFound
	}
	return &task, nil
}

func list(db *bolt.DB, bucket []byte) ([]uint64, error) {
	var ids []uint64
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			ids = append(ids, binary.BigEndian.Uint64(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}
	return ids, nil
}

func del(db *bolt.DB, bucket []byte, id uint64) error {
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(idKey(id))
	})
}

func clear(db *bolt.DB, bucket []byte) error {
	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

func (s *BoltStore) PutPending(t *model.Task) error    { return put(s.db, bucketPending, t) }
func (s *BoltStore) GetPending(id uint64) (*model.Task, error) { return get(s.db, bucketPending, id) }
func (s *BoltStore) ListPending() ([]uint64, error)     { return list(s.db, bucketPending) }
func (s *BoltStore) DeletePending(id uint64) error      { return del(s.db, bucketPending, id) }
func (s *BoltStore) ClearPending() error                { return clear(s.db, bucketPending) }

func (s *BoltStore) PutFinished(t *model.Task) error    { return put(s.db, bucketFinished, t) }
func (s *BoltStore) GetFinished(id uint64) (*model.Task, error) { return get(s.db, bucketFinished, id) }
func (s *BoltStore) ListFinished() ([]uint64, error)    { return list(s.db, bucketFinished) }
func (s *BoltStore) ClearFinished() error               { return clear(s.db, bucketFinished) }

// ReserveID allocates the next ID from a durable counter kept in the
// meta bucket, independent of which rows happen to still be present in
// pending/finished.
func (s *BoltStore) ReserveID() (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if data := b.Get(keyNextID); data != nil {
			id = binary.BigEndian.Uint64(data)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, id+1)
		return b.Put(keyNextID, buf)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}
	return id, nil
}
