// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over shards with murmur3, and each shard has its own
// RWMutex. The RESP server keeps its live connections here: accepts and
// closes touch different shards, and shutdown drains the whole map.
//
//	conns := cmap.New[string, *Conn]()
//	conns.Set(id, conn)
//	for _, c := range conns.Drain() {
//		c.Close()
//	}
package cmap
