// Package persistence provides the key-value storage layer under the
// record store. It exposes synchronous string-keyed get/set/remove over
// a SQLite backend with WAL mode, with quota and not-found conditions
// distinguishable by the caller. Keys are independent, there are no
// cross-key transactions.
package persistence
