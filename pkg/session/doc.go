/*
Package session layers a fast in-memory cache over a durable session store.

Concurrency control is optimistic: every mutation carries the version observed
at load and the store rejects stale writes, so the cache never needs to lock
a session across a turn. Cache entries are invalidated on every successful
save and repopulated lazily on the next load.
*/
package session
