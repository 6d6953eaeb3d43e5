package monitor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calvinmclean/smartaqua"

	bolt "go.etcd.io/bbolt"
)

var eventsBucket = []byte("events")

// Record is a stored diagnostic event. Only the fields for its Kind are set
type Record struct {
	Time    time.Time         `json:"time"`
	Kind    string            `json:"kind"`
	Report  *smartaqua.Report `json:"report,omitempty"`
	Source  string            `json:"source,omitempty"`
	Sensor  string            `json:"sensor,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Record kinds
const (
	RecordStatus = "status"
	RecordFeed   = "feed"
	RecordFault  = "fault"
)

// History stores events in a bbolt file, ordered by time
type History struct {
	db *bolt.DB
}

var _ Sink = &History{}

// OpenHistory opens or creates the history file at path
func OpenHistory(path string) (*History, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("error opening history %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating history bucket: %w", err)
	}

	return &History{db: db}, nil
}

// Report implements Sink
func (h *History) Report(now time.Time, r smartaqua.Report) error {
	return h.add(Record{Time: now, Kind: RecordStatus, Report: &r})
}

// Feed implements Sink
func (h *History) Feed(now time.Time, source smartaqua.FeedSource) error {
	return h.add(Record{Time: now, Kind: RecordFeed, Source: source.String()})
}

// Fault implements Sink
func (h *History) Fault(now time.Time, sensor, msg string) error {
	return h.add(Record{Time: now, Kind: RecordFault, Sensor: sensor, Message: msg})
}

// Recent returns up to n of the latest records, newest first. An empty kind matches every record and
// n <= 0 returns all of them
func (h *History) Recent(n int, kind string) ([]Record, error) {
	var records []Record
	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r Record
			err := json.Unmarshal(v, &r)
			if err != nil {
				return fmt.Errorf("error decoding record: %w", err)
			}

			if kind != "" && r.Kind != kind {
				continue
			}

			records = append(records, r)
			if n > 0 && len(records) == n {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the history file
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) add(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("error encoding record: %w", err)
	}

	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(recordKey(r.Time, seq), data)
	})
}

// recordKey sorts by time, then by insertion order for events in the same nanosecond
func recordKey(t time.Time, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(t.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}
