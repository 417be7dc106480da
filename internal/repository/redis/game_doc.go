package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/conquestlab/landgrab/internal/model"
)

// maxTxRetries bounds how often an optimistic document transaction is
// retried when another writer touches the key mid-cycle.
const maxTxRetries = 16

// ErrTooMuchContention is returned when a document transaction keeps
// colliding with concurrent writers.
var ErrTooMuchContention = errors.New("game document transaction retried too many times")

func docKey(gameID string) string    { return "game:" + gameID + ":doc" }
func eventsKey(gameID string) string { return "game:" + gameID + ":events" }

// allEventsPattern matches every game's event channel.
const allEventsPattern = "game:*:events"

func decodeDoc(data []byte) (*model.GameDoc, error) {
	var doc model.GameDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode game doc: %w", err)
	}
	return &doc, nil
}

// Get returns the game document, or nil when no such game exists.
func (c *Client) Get(ctx context.Context, gameID string) (*model.GameDoc, error) {
	data, err := c.rdb.Get(ctx, docKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game doc: %w", err)
	}
	return decodeDoc(data)
}

// Update runs fn against the current document under optimistic
// concurrency. The document key is watched while fn runs; if another
// writer commits first the whole read-mutate-write cycle is retried
// against the fresh document, up to maxTxRetries times. fn receives nil
// when the game does not exist yet and may return a nil document to
// commit nothing. Errors from fn abort the transaction unretried.
func (c *Client) Update(ctx context.Context, gameID string, fn func(*model.GameDoc) (*model.GameDoc, error)) (*model.GameDoc, error) {
	key := docKey(gameID)
	var result *model.GameDoc

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		var doc *model.GameDoc
		switch {
		case err == redis.Nil:
			doc = nil
		case err != nil:
			return fmt.Errorf("read game doc: %w", err)
		default:
			if doc, err = decodeDoc(data); err != nil {
				return err
			}
		}

		next, err := fn(doc)
		if err != nil {
			return err
		}
		if next == nil {
			result = doc
			return nil
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode game doc: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := c.rdb.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrTooMuchContention, gameID)
}

// Delete removes the game document.
func (c *Client) Delete(ctx context.Context, gameID string) error {
	if err := c.rdb.Del(ctx, docKey(gameID)).Err(); err != nil {
		return fmt.Errorf("delete game doc: %w", err)
	}
	return nil
}

// Publish sends an event on the game's channel.
func (c *Client) Publish(ctx context.Context, event *model.GameEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := c.rdb.Publish(ctx, eventsKey(event.GameID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe delivers events for one game until the returned stop
// function is called or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, gameID string) (<-chan *model.GameEvent, func(), error) {
	return c.fanIn(ctx, c.rdb.Subscribe(ctx, eventsKey(gameID)))
}

// SubscribeAll delivers events for every game. Used by the bot watcher,
// which needs to see each game it has a seat in.
func (c *Client) SubscribeAll(ctx context.Context) (<-chan *model.GameEvent, func(), error) {
	return c.fanIn(ctx, c.rdb.PSubscribe(ctx, allEventsPattern))
}

func (c *Client) fanIn(ctx context.Context, sub *redis.PubSub) (<-chan *model.GameEvent, func(), error) {
	// Force the subscription handshake before handing out the channel.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	events := make(chan *model.GameEvent, 16)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var ev model.GameEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				// Foreign payloads on the channel are dropped.
				continue
			}
			select {
			case events <- &ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() { sub.Close() }
	return events, stop, nil
}
