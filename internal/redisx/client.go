package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Location is the latest-wins live position of a delivery, cached so public
// tracking reads do not hit the database.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

func SetDeliveryLocation(ctx context.Context, rdb *redis.Client, orderID uint, loc Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf(KeyDeliveryLocation, orderID), data, TTLDeliveryLocation).Err()
}

// GetDeliveryLocation returns nil on a cache miss.
func GetDeliveryLocation(ctx context.Context, rdb *redis.Client, orderID uint) (*Location, error) {
	data, err := rdb.Get(ctx, fmt.Sprintf(KeyDeliveryLocation, orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}
