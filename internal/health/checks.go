package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-transactions/internal/rabbitmq"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ChannelProvider is satisfied by *rabbitmq.ConnectionManager.
type ChannelProvider interface {
	Channel() (rabbitmq.Channel, error)
}

// PostgresCheck pings the database.
func PostgresCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// RedisCheck pings the cache.
func RedisCheck(client redis.Cmdable) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// RabbitMQCheck asks the connection manager for a channel, reconnecting
// when the previous one was lost. The first run therefore dials the broker.
// A dial that outlives ctx is reported as ctx.Err() and left to finish in
// the background, bounded by the manager's dial timeout.
func RabbitMQCheck(conns ChannelProvider) CheckFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			_, err := conns.Channel()
			errCh <- err
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
