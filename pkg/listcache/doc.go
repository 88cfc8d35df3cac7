// Package listcache keeps a fetched collection of records in memory and
// exposes a filtered view of it.
//
// A Cache owns one collection for one admin.ResourceClient. Text search runs
// client side over the collection; writes go through the client and, on
// success, are reconciled by a WritePolicy (a full re-fetch by default).
//
//	products := listcache.New(ctx, client.Products(),
//		listcache.WithCategories(categories.Data),
//	)
//
//	products.Search("rice")
//	for _, p := range products.Items() {
//		fmt.Println(p.String("name"))
//	}
//
// OrdersCache extends Cache with status and date range filters and keeps the
// order statistics in step with every successful write.
//
// Every fetch is numbered. A response is applied only when no newer fetch was
// issued after it, so the collection always reflects the most recently
// requested data.
package listcache
