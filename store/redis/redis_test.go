package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/waitpoint/waitpoint/store"
	"github.com/waitpoint/waitpoint/store/test"
)

const (
	address  = "localhost:6379"
	user     = ""
	password = "RedisPassw0rd"
)

func Test_RedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	client := getClient()

	test.StoreTest(t, func() store.Store {
		// Flush database
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			panic(err)
		}

		return NewRedisStore(client)
	}, func(s store.Store) {
		// Keep the shared client open for the next test
	})
}

func getClient() redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{address},
		Username: user,
		Password: password,
		DB:       0,
	})
}
