package db

import (
	"context"
	"fmt"
	"time"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	viewPrefix    string = "view"
	indexViewsKey string = "indexViews"
)

// GetView reads a saved dashboard view from Redis
func (r RedisAdapter) GetView(ctx context.Context, viewID string) (models.SavedView, error) {
	output := models.SavedView{}
	raw, err := r.rdb.HGetAll(
		ctx,
		r.viewKey(viewID),
	).Result()
	if err != nil {
		return output, err
	}
	err = r.deserializeToStruct(raw, &output)
	if err != nil {
		if err == dasherrors.ErrMissingDBResource {
			err = dasherrors.ErrViewNotFound
		}
		return models.SavedView{}, err
	}
	return output, nil
}

// SetView writes a saved dashboard view to Redis and indexes it by creation time
func (r RedisAdapter) SetView(ctx context.Context, view models.SavedView) error {
	err := r.rdb.HSet(
		ctx,
		r.viewKey(view.ID),
		r.serializeStruct(view)...,
	).Err()
	if err != nil {
		return err
	}
	return r.rdb.ZAdd(
		ctx,
		indexViewsKey,
		redis.Z{Score: float64(view.CreatedAt.Unix()), Member: view.ID},
	).Err()
}

// RemoveView removes a saved dashboard view and its index entry from Redis
func (r RedisAdapter) RemoveView(ctx context.Context, view models.SavedView) error {
	err := r.rdb.ZRem(
		ctx,
		indexViewsKey,
		view.ID,
	).Err()
	if err != nil {
		return err
	}
	return r.rdb.Del(
		ctx,
		r.viewKey(view.ID),
	).Err()
}

// GetViewIDs lists the IDs of saved views created inside the given time range,
// oldest first
func (r RedisAdapter) GetViewIDs(
	ctx context.Context,
	createdAfter time.Time,
	createdBefore time.Time,
) ([]string, error) {
	var viewIDs []string

	zrangeargs := redis.ZRangeArgs{
		Key:     indexViewsKey,
		Start:   createdAfter.Unix(),
		Stop:    createdBefore.Unix(),
		ByScore: true,
	}

	zrange, err := r.rdb.ZRangeArgsWithScores(
		ctx,
		zrangeargs,
	).Result()

	for _, view := range zrange {
		viewIDs = append(viewIDs, fmt.Sprintf("%v", view.Member))
	}

	return viewIDs, err
}

func (RedisAdapter) viewKey(viewID string) string {
	return viewPrefix + ":" + viewID
}
