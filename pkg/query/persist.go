package query

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the persisted form of a successful result.
type envelope struct {
	Data      []byte    `msgpack:"data"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

type hydrated struct {
	val       any
	updatedAt time.Time
}

// hydrate seeds the entry for key from the persister the first time the
// key is queried. Load failures are logged and treated as misses.
func (c *Cache) hydrate(ctx context.Context, key Key, opts Options) error {
	if c.cfg.persister == nil || opts.Decode == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	e, ok := c.entries[key]
	need := !ok || (!e.hydrated && !e.hasData && e.fetching == nil)
	c.mu.Unlock()
	if !need {
		return nil
	}

	v, _, _ := c.loads.Do(key.String(), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, opts), nil
	})
	h, _ := v.(*hydrated)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	e = c.entryLocked(key)
	drain := false
	if !e.hydrated {
		e.hydrated = true
		if h != nil && !e.hasData {
			e.status = StatusSuccess
			e.data = h.val
			e.hasData = true
			e.updatedAt = h.updatedAt
			e.version++
			drain = e.enqueue(e.snapshot())
		}
	}
	c.mu.Unlock()

	if drain {
		c.drain(e)
	}
	return nil
}

func (c *Cache) load(ctx context.Context, key Key, opts Options) *hydrated {
	raw, ok, err := c.cfg.persister.Get(ctx, c.storageKey(key))
	if err != nil {
		c.cfg.logger.Warn("load persisted query", "key", key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		c.cfg.logger.Warn("decode persisted query", "key", key, "err", err)
		return nil
	}
	val, err := opts.Decode(env.Data)
	if err != nil {
		c.cfg.logger.Warn("decode persisted query", "key", key, "err", err)
		return nil
	}
	c.cfg.logger.Debug("query hydrated", "key", key, "updated_at", env.UpdatedAt)
	return &hydrated{val: val, updatedAt: env.UpdatedAt}
}

// persist writes a successful result through the persister.
func (c *Cache) persist(ctx context.Context, key Key, val any, updatedAt time.Time, opts Options) {
	if c.cfg.persister == nil || opts.Decode == nil {
		return
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		c.cfg.logger.Warn("encode query result", "key", key, "err", err)
		return
	}
	raw, err := msgpack.Marshal(envelope{Data: data, UpdatedAt: updatedAt})
	if err != nil {
		c.cfg.logger.Warn("encode query result", "key", key, "err", err)
		return
	}
	if err := c.cfg.persister.Set(ctx, c.storageKey(key), raw, c.cfg.persistTTL); err != nil {
		c.cfg.logger.Warn("persist query result", "key", key, "err", err)
	}
}

func (c *Cache) storageKey(key Key) string {
	return c.cfg.keyer.QueryKey(key.Resource, key.ID)
}
