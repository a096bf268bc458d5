// Package locks provides distributed locks for strict quota enforcement.
//
// RedisLocker holds a key with SET NX PX and a random token; release runs a
// Lua script that deletes the key only while the token still matches, so a
// holder whose lease expired never frees a lock taken over by someone else.
//
//	locker := locks.NewRedisLocker(client, locks.DefaultTTL, logger)
//	enforcer := quotas.NewEnforcer(store, usage, quotas.WithLocker(locker))
package locks
