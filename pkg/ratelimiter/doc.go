// Package ratelimiter is a token bucket limiter used to throttle login
// attempts on the web front end. Buckets live in a MemoryStore for a single
// instance or a RedisStore when several instances share the session store.
//
//	b, _ := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(time.Minute), cfg)
//	r.With(ratelimiter.Middleware(b, ratelimiter.KeyByIP, log)).Post("/auth/login", login)
package ratelimiter
