package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/geo"
	"github.com/vantagechat/vantage-server/internal/store"
)

// Tracker derives and persists online/offline transitions as connections
// classify and disconnect. It keeps a last-known mirror of every record so a
// failed durable write or read degrades to best-effort snapshot data instead
// of blocking a broadcast.
type Tracker struct {
	store store.PresenceStore
	log   *zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	records map[string]store.PresenceRecord // last-known mirror
	online  map[string]struct{}             // identities this tracker marked online
}

// NewTracker constructs a tracker over the given presence store. The store
// may be nil, in which case transitions are tracked in memory only.
func NewTracker(st store.PresenceStore, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		store:   st,
		log:     logger,
		now:     time.Now,
		records: make(map[string]store.PresenceRecord),
		online:  make(map[string]struct{}),
	}
}

// Online upserts the record for identity with status online and a refreshed
// last-active timestamp. Repeated logins overwrite; geography history is not
// retained.
func (t *Tracker) Online(ctx context.Context, identity string, loc geo.Location) {
	rec := store.PresenceRecord{
		Identity:   identity,
		IP:         loc.IP,
		City:       loc.City,
		Region:     loc.Region,
		Country:    loc.Country,
		Org:        loc.Org,
		Status:     store.StatusOnline,
		LastActive: t.now(),
	}

	t.mu.Lock()
	t.records[identity] = rec
	t.online[identity] = struct{}{}
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.UpsertPresence(ctx, &rec); err != nil {
		// Broadcast continues with the in-memory mirror.
		t.log.Warn().Err(err).Str("identity", identity).Msg("presence upsert failed")
	}
}

// Offline marks identity offline, but only if this tracker previously marked
// it online. Returns whether a transition happened.
func (t *Tracker) Offline(ctx context.Context, identity string) bool {
	now := t.now()

	t.mu.Lock()
	if _, ok := t.online[identity]; !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.online, identity)
	rec := t.records[identity]
	rec.Identity = identity
	rec.Status = store.StatusOffline
	rec.LastActive = now
	t.records[identity] = rec
	t.mu.Unlock()

	if t.store == nil {
		return true
	}
	if err := t.store.SetPresenceOffline(ctx, identity, now); err != nil {
		t.log.Warn().Err(err).Str("identity", identity).Msg("presence offline write failed")
	}
	return true
}

// Snapshot returns the full current record set, preferring the durable store
// and falling back to the last-known mirror when the read fails.
func (t *Tracker) Snapshot(ctx context.Context) []*store.PresenceRecord {
	if t.store != nil {
		records, err := t.store.ListPresence(ctx)
		if err == nil {
			return records
		}
		t.log.Warn().Err(err).Msg("presence list failed, serving last-known records")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*store.PresenceRecord, 0, len(t.records))
	for _, rec := range t.records {
		r := rec
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Purge drops the in-memory mirror. Called after an administrative bulk
// delete so the next snapshot reflects the emptied state even if the durable
// read fails.
func (t *Tracker) Purge() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string]store.PresenceRecord)
	t.online = make(map[string]struct{})
}
