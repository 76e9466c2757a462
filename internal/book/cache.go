package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalogue/internal/author"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "catalogue:book:"
	// evictHold bounds how long a read that started before a write may take
	// to fill the cache; fills are refused while the tombstone lives.
	evictHold = 30 * time.Second
)

// NopCache never stores anything. It is used when no Redis is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Book, bool, error) { return Book{}, false, nil }
func (NopCache) Set(context.Context, Book) error                 { return nil }
func (NopCache) Delete(context.Context, string) error            { return nil }
func (NopCache) Flush(context.Context) error                     { return nil }

// RedisCache keeps book payloads in Redis under catalogue:book:<isbn>.
// Delete leaves an empty tombstone and Set only fills absent keys, so a read
// that loaded a book before a write cannot put the old payload back.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

type cachedAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type cachedBook struct {
	ID              string         `json:"id"`
	ISBN            string         `json:"isbn"`
	Title           string         `json:"title"`
	Authors         []cachedAuthor `json:"authors"`
	PublicationDate Date           `json:"publicationDate"`
	Summary         string         `json:"summary"`
	PageCount       int            `json:"pageCount"`
}

func cacheKey(isbn string) string {
	return cacheKeyPrefix + isbn
}

func (c *RedisCache) Get(ctx context.Context, isbn string) (Book, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(isbn)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Book{}, false, nil
	}
	if err != nil {
		return Book{}, false, err
	}
	if len(data) == 0 {
		return Book{}, false, nil
	}

	var cb cachedBook
	if err := json.Unmarshal(data, &cb); err != nil {
		return Book{}, false, fmt.Errorf("decode cached book %s: %w", isbn, err)
	}

	b := Book{
		ID:              cb.ID,
		ISBN:            cb.ISBN,
		Title:           cb.Title,
		Authors:         make([]author.Author, 0, len(cb.Authors)),
		PublicationDate: cb.PublicationDate,
		Summary:         cb.Summary,
		PageCount:       cb.PageCount,
	}
	for _, a := range cb.Authors {
		b.Authors = append(b.Authors, author.Author{ID: a.ID, Name: a.Name})
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, b Book) error {
	cb := cachedBook{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Authors:         make([]cachedAuthor, 0, len(b.Authors)),
		PublicationDate: b.PublicationDate,
		Summary:         b.Summary,
		PageCount:       b.PageCount,
	}
	for _, a := range b.Authors {
		cb.Authors = append(cb.Authors, cachedAuthor{ID: a.ID, Name: a.Name})
	}

	data, err := json.Marshal(cb)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, cacheKey(b.ISBN), data, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, isbn string) error {
	return c.client.Set(ctx, cacheKey(isbn), "", evictHold).Err()
}

// Flush removes every cached book, walking the keyspace with SCAN.
func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Ping reports whether Redis answers.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
