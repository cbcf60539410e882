// Package redis connects to Redis with github.com/redis/go-redis/v9.
//
// Connect retries until the server answers a PING, which lets a service
// start alongside its Redis container. Healthcheck adapts the client to a
// readiness check. The session package stores sessions through the returned
// client:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	sessions := session.NewRedisStore(client)
package redis
