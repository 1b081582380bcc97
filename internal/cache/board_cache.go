// Package cache keeps projected kanban boards in Redis so repeated board
// reads skip the database. Every mutation of a project's tasks evicts its
// entry.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskflow/internal/kanban"
)

// BoardCache is a Redis-backed board cache. A nil *BoardCache, or one
// without a client, behaves as an always-empty cache.
type BoardCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewBoardCache(client *redis.Client, ttl time.Duration) *BoardCache {
	if ttl < 0 {
		ttl = 0
	}
	return &BoardCache{redis: client, ttl: ttl}
}

func (c *BoardCache) Get(ctx context.Context, projectID uuid.UUID) (kanban.Board, bool) {
	if c == nil || c.redis == nil {
		return kanban.Board{}, false
	}
	key := boardCacheKey(projectID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Debug("board cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return kanban.Board{}, false
	}

	var board kanban.Board
	if err := sonic.Unmarshal(data, &board); err != nil {
		log.WithError(err).WithField("key", key).Debug("board cache entry corrupt")
		_ = c.redis.Del(ctx, key).Err()
		return kanban.Board{}, false
	}
	return board, true
}

// Generation returns the project's current eviction counter. Read it
// before loading the tasks a board is built from and pass it to Set. ok is
// false when Redis cannot answer, in which case the board must not be
// stored.
func (c *BoardCache) Generation(ctx context.Context, projectID uuid.UUID) (gen int64, ok bool) {
	if c == nil || c.redis == nil {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, generationKey(projectID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.WithError(err).Debug("board cache generation read failed")
		return 0, false
	}
	return gen, true
}

// Set stores board only if no eviction happened since gen was read. The
// check and the write run under WATCH, so an Evict racing the write aborts
// it.
func (c *BoardCache) Set(ctx context.Context, board kanban.Board, gen int64) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(board)
	if err != nil {
		log.WithError(err).Debug("board cache encode failed")
		return
	}

	genKey := generationKey(board.ProjectID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleBoard
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, boardCacheKey(board.ProjectID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleBoard), errors.Is(err, redis.TxFailedErr):
		log.WithField("project_id", board.ProjectID.String()).Debug("board cache write skipped, board changed while loading")
	default:
		log.WithError(err).Debug("board cache write failed")
	}
}

// Evict drops the cached board and bumps the generation so loads already in
// flight cannot store what they read.
func (c *BoardCache) Evict(ctx context.Context, projectID uuid.UUID) {
	if c == nil || c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(projectID))
		pipe.Del(ctx, boardCacheKey(projectID))
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("board cache evict failed")
	}
}

var errStaleBoard = errors.New("stale board")

func boardCacheKey(projectID uuid.UUID) string {
	return "kanban:" + projectID.String()
}

func generationKey(projectID uuid.UUID) string {
	return "kanban:gen:" + projectID.String()
}
