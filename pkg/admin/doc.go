// Package admin provides types, interfaces, and helpers for working with the
// store administration REST API.
//
// # Overview
//
// The admin package defines the record model (Record, ListResult, PageInfo),
// the response envelope adapter (UnwrapEnvelope), the error model
// (OperationError, ResponseError, ShapeMismatchError) and the interfaces of
// the resource-oriented clients (ResourceClient, OrdersClient, ...). A
// concrete implementation is provided by the storeclient package, which wires
// configuration, transport and token handling:
//
//	cli, err := storeclient.New(&admin.Config{APIEndpoint: "http://localhost:3000/api"})
//	if err != nil { log.Fatal(err) }
//
//	products, err := cli.Products().GetAll(ctx, map[string]string{"limit": "50"})
//	if err != nil {
//	  // err is an *admin.OperationError; products.Data is an empty slice
//	}
//
// # Envelopes
//
// The backend answers either with a structured envelope
// ({"success": true, "data": ..., "pagination": {...}}) or with the bare
// payload. UnwrapEnvelope resolves both into a single payload, preferring the
// structured form. List payloads that are not arrays decode to an empty
// collection and a ShapeMismatchError warning instead of failing.
//
// # Notifications
//
// Write operations report their outcome to a Notifier ("Product created
// successfully", "Failed to delete Coupon"). LogNotifier, NATSNotifier and
// MultiNotifier cover the common sinks.
//
// # Interceptors and batches
//
// InterceptorChain lets callers observe or decorate every HTTP exchange, and
// BatchExecutor runs create/update/patch/delete/get operations against named
// resources with bounded concurrency.
package admin
