package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names used in the bbolt database.
var (
	bucketMeta       = []byte("_meta")
	bucketGroups     = []byte("groups")
	bucketGroupNames = []byte("group_names")
	bucketItems      = []byte("items")
	bucketAccess     = []byte("access")
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound           = errors.New("not found")
	ErrGroupNotFound      = fmt.Errorf("group %w", ErrNotFound)
	ErrItemNotFound       = fmt.Errorf("item %w", ErrNotFound)
	ErrDuplicateGroupName = errors.New("group name already exists")
)

// BoltStore implements Store using bbolt.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database at the given path and
// ensures all required buckets exist. The file is created with 0600 permissions.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{
			bucketMeta,
			bucketGroups,
			bucketGroupNames,
			bucketItems,
			bucketAccess,
		} {
			if _, bErr := tx.CreateBucketIfNotExists(b); bErr != nil {
				return fmt.Errorf("create bucket %s: %w", b, bErr)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Vault metadata
// ---------------------------------------------------------------------------

const metaKey = "vault_meta"

// GetMeta returns the vault metadata, or ErrNotFound if not set.
func (s *BoltStore) GetMeta() (*VaultMeta, error) {
	var meta VaultMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(metaKey))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SetMeta stores the vault metadata in one write.
func (s *BoltStore) SetMeta(meta *VaultMeta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		return tx.Bucket(bucketMeta).Put([]byte(metaKey), data)
	})
}

// ResetVault removes the vault metadata and every password ciphertext.
// Usernames, notes and all other item fields are kept.
func (s *BoltStore) ResetVault() (int, error) {
	cleared := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		items := tx.Bucket(bucketItems)

		type update struct {
			key  []byte
			data []byte
		}
		var updates []update

		if err := items.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshal item %s: %w", k, err)
			}
			creds := item.Credentials()
			if !creds.HasPassword() {
				return nil
			}
			creds.Password = ""
			item.UpdatedAt = now()
			data, err := json.Marshal(&item)
			if err != nil {
				return fmt.Errorf("marshal item: %w", err)
			}
			updates = append(updates, update{key: append([]byte(nil), k...), data: data})
			return nil
		}); err != nil {
			return err
		}

		// Writes are deferred until after iteration; bbolt cursors do not
		// tolerate mutation mid-ForEach.
		for _, u := range updates {
			if err := items.Put(u.key, u.data); err != nil {
				return err
			}
		}
		cleared = len(updates)

		return tx.Bucket(bucketMeta).Delete([]byte(metaKey))
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// CreateGroup stores a new group at the end of the group order. It returns
// ErrDuplicateGroupName if the name is taken. A nil ID is assigned.
func (s *BoltStore) CreateGroup(group *Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now()
		group.UpdatedAt = group.CreatedAt
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(bucketGroupNames)
		if existing := names.Get([]byte(group.Name)); existing != nil {
			return ErrDuplicateGroupName
		}

		bucket := tx.Bucket(bucketGroups)
		group.Position = 0
		if err := bucket.ForEach(func(_, v []byte) error {
			var g Group
			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}
			if g.Position >= group.Position {
				group.Position = g.Position + 1
			}
			return nil
		}); err != nil {
			return err
		}

		data, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("marshal group: %w", err)
		}

		idKey := []byte(group.ID.String())
		if err := bucket.Put(idKey, data); err != nil {
			return err
		}
		return names.Put([]byte(group.Name), idKey)
	})
}

// GetGroup retrieves a group by its UUID.
func (s *BoltStore) GetGroup(id uuid.UUID) (*Group, error) {
	var group Group
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketGroups).Get([]byte(id.String()))
		if v == nil {
			return ErrGroupNotFound
		}
		return json.Unmarshal(v, &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetGroupByName retrieves a group by name using the name index.
func (s *BoltStore) GetGroupByName(name string) (*Group, error) {
	var group Group
	err := s.db.View(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(bucketGroupNames).Get([]byte(name))
		if idBytes == nil {
			return ErrGroupNotFound
		}
		v := tx.Bucket(bucketGroups).Get(idBytes)
		if v == nil {
			return ErrGroupNotFound
		}
		return json.Unmarshal(v, &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns all groups ordered by position.
func (s *BoltStore) ListGroups() ([]*Group, error) {
	var groups []*Group
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGroups).ForEach(func(_, v []byte) error {
			var g Group
			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}
			groups = append(groups, &g)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Position < groups[j].Position
	})
	return groups, nil
}

// UpdateGroup updates an existing group, keeping the name index in sync.
func (s *BoltStore) UpdateGroup(group *Group) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketGroups)
		idKey := []byte(group.ID.String())

		existing := bucket.Get(idKey)
		if existing == nil {
			return ErrGroupNotFound
		}

		var old Group
		if err := json.Unmarshal(existing, &old); err != nil {
			return fmt.Errorf("unmarshal old group: %w", err)
		}

		names := tx.Bucket(bucketGroupNames)
		if old.Name != group.Name {
			if dup := names.Get([]byte(group.Name)); dup != nil {
				return ErrDuplicateGroupName
			}
			if err := names.Delete([]byte(old.Name)); err != nil {
				return err
			}
			if err := names.Put([]byte(group.Name), idKey); err != nil {
				return err
			}
		}

		group.UpdatedAt = now()
		data, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("marshal group: %w", err)
		}
		return bucket.Put(idKey, data)
	})
}

// DeleteGroup removes a group and every item it owns. It returns the number
// of items deleted.
func (s *BoltStore) DeleteGroup(id uuid.UUID) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		groups := tx.Bucket(bucketGroups)
		idKey := []byte(id.String())

		v := groups.Get(idKey)
		if v == nil {
			return ErrGroupNotFound
		}
		var group Group
		if err := json.Unmarshal(v, &group); err != nil {
			return fmt.Errorf("unmarshal group: %w", err)
		}

		items := tx.Bucket(bucketItems)
		var doomed [][]byte
		if err := items.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			if item.GroupID == id {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range doomed {
			if err := items.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(doomed)

		if err := groups.Delete(idKey); err != nil {
			return err
		}
		return tx.Bucket(bucketGroupNames).Delete([]byte(group.Name))
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// CreateItem stores a new item at the end of its group's order. A nil ID is
// assigned.
func (s *BoltStore) CreateItem(item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
		item.UpdatedAt = item.CreatedAt
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketGroups).Get([]byte(item.GroupID.String())) == nil {
			return ErrGroupNotFound
		}

		siblings, err := groupItems(tx, item.GroupID)
		if err != nil {
			return err
		}
		item.Position = nextPosition(siblings)
		return putItem(tx, item)
	})
}

// GetItem retrieves an item by its UUID.
func (s *BoltStore) GetItem(id uuid.UUID) (*Item, error) {
	var item *Item
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		item, err = getItem(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns the items of a group ordered by position. uuid.Nil lists
// every item, ordered by group position then item position.
func (s *BoltStore) ListItems(groupID uuid.UUID) ([]*Item, error) {
	var items []*Item
	groupOrder := make(map[uuid.UUID]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		if groupID != uuid.Nil {
			if tx.Bucket(bucketGroups).Get([]byte(groupID.String())) == nil {
				return ErrGroupNotFound
			}
			var err error
			items, err = groupItems(tx, groupID)
			return err
		}

		if err := tx.Bucket(bucketGroups).ForEach(func(_, v []byte) error {
			var g Group
			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}
			groupOrder[g.ID] = g.Position
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketItems).ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		gi, gj := groupOrder[items[i].GroupID], groupOrder[items[j].GroupID]
		if gi != gj {
			return gi < gj
		}
		return items[i].Position < items[j].Position
	})
	return items, nil
}

// UpdateItem replaces an existing item. Moving an item to another group
// appends it to that group's order.
func (s *BoltStore) UpdateItem(item *Item) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		old, err := getItem(tx, item.ID)
		if err != nil {
			return err
		}

		if old.GroupID != item.GroupID {
			if tx.Bucket(bucketGroups).Get([]byte(item.GroupID.String())) == nil {
				return ErrGroupNotFound
			}
			siblings, err := groupItems(tx, item.GroupID)
			if err != nil {
				return err
			}
			item.Position = nextPosition(siblings)
		} else {
			item.Position = old.Position
		}

		item.UpdatedAt = now()
		return putItem(tx, item)
	})
}

// DeleteItem removes an item by ID.
func (s *BoltStore) DeleteItem(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketItems)
		key := []byte(id.String())
		if bucket.Get(key) == nil {
			return ErrItemNotFound
		}
		return bucket.Delete(key)
	})
}

// MoveItem places an item at position within its group and renumbers the
// group so positions stay unique and contiguous. Out-of-range positions are
// clamped.
func (s *BoltStore) MoveItem(id uuid.UUID, position int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		item, err := getItem(tx, id)
		if err != nil {
			return err
		}

		siblings, err := groupItems(tx, item.GroupID)
		if err != nil {
			return err
		}

		ordered := make([]*Item, 0, len(siblings))
		for _, sib := range siblings {
			if sib.ID != id {
				ordered = append(ordered, sib)
			}
		}
		if position < 0 {
			position = 0
		}
		if position > len(ordered) {
			position = len(ordered)
		}
		ordered = append(ordered[:position], append([]*Item{item}, ordered[position:]...)...)

		for i, it := range ordered {
			if it.Position == i && it.ID != id {
				continue
			}
			it.Position = i
			if err := putItem(tx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordAccess increments the item's access counter, stamps its last-access
// time and appends entry to the access log.
func (s *BoltStore) RecordAccess(id uuid.UUID, entry *AccessEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		item, err := getItem(tx, id)
		if err != nil {
			return err
		}

		if entry.Timestamp.IsZero() {
			entry.Timestamp = now()
		}
		at := entry.Timestamp.UTC()
		item.AccessCount++
		item.LastAccessedAt = &at
		if err := putItem(tx, item); err != nil {
			return err
		}

		b := tx.Bucket(bucketAccess)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("access sequence: %w", err)
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal access entry: %w", err)
		}
		return b.Put(accessKey(at, seq), data)
	})
}

// accessKey orders the access log by time. Both halves are fixed-width
// big-endian, so byte order equals time order and seq breaks ties within
// the same nanosecond.
func accessKey(at time.Time, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

// ListAccess returns the most recent access entries, newest first.
// A limit of zero or less returns everything.
func (s *BoltStore) ListAccess(limit int) ([]*AccessEntry, error) {
	var entries []*AccessEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAccess).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry AccessEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	return entries, err
}

func getItem(tx *bolt.Tx, id uuid.UUID) (*Item, error) {
	v := tx.Bucket(bucketItems).Get([]byte(id.String()))
	if v == nil {
		return nil, ErrItemNotFound
	}
	var item Item
	if err := json.Unmarshal(v, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &item, nil
}

func putItem(tx *bolt.Tx, item *Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	return tx.Bucket(bucketItems).Put([]byte(item.ID.String()), data)
}

// groupItems returns the items of one group sorted by position.
func groupItems(tx *bolt.Tx, groupID uuid.UUID) ([]*Item, error) {
	var items []*Item
	err := tx.Bucket(bucketItems).ForEach(func(_, v []byte) error {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		if item.GroupID == groupID {
			items = append(items, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func nextPosition(siblings []*Item) int {
	next := 0
	for _, sib := range siblings {
		if sib.Position >= next {
			next = sib.Position + 1
		}
	}
	return next
}
