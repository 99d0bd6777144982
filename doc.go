// Package offcache implements an offline-aware request orchestrator: it
// reconciles a persisted response cache with a live network fetch and
// delivers results under a per-call Policy.
//
// Components:
//   - request.Descriptor: immutable description of one outbound request.
//   - cachekey: deterministic key from method, URL path and body.
//   - connectivity.Monitor: lock-free reachability belief with observers.
//   - codec: decoders that try an enveloped shape ({"data": ...}) before a flat one.
//   - store.Store: two-phase byte cache (durable writer stage, front reader stage)
//     with generation-checked write-back.
//   - transport.Fetcher: the single network attempt.
//   - dispatch.Dispatcher: the serialized context callbacks run on.
//
// Per call:
//
//	cache read   iff descriptor caches, monitor says disconnected and a store is set
//	network      always (unless SkipLocalFetch and Local)
//	write-back   decoded network body, when the descriptor caches or the client is Restricted
//	delivery     filtered on the dispatcher by Policy, connectivity read at delivery time
//
// Usage:
//
//	c, _ := offcache.New[[]int](offcache.Options[[]int]{
//	    Fetcher: transport.NewHTTP(transport.HTTPOptions{}),
//	    Store:   store.New(store.Options{Namespace: "app"}),
//	    Monitor: mon,
//	})
//	d := request.MustNew("https://api.example.com/items", request.WithCache(true))
//	for r := range c.Do(ctx, d, offcache.LocalOrRemote) {
//	    ...
//	}
package offcache
