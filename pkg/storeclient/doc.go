// Package storeclient is the entry point for constructing a store
// administration API client that implements the admin.Client interface.
//
// It normalizes the configuration, builds the HTTP transport and token store
// and, when credentials are configured and no valid token is held, logs in
// before returning.
//
// Quick start
//
//	ctx := context.Background()
//
//	// Local backend, no auth.
//	cli, err := storeclient.NewWithEndpoint(ctx, "localhost:3000/api")
//	if err != nil { log.Fatal(err) }
//
//	// With a token you already have:
//	cli, err = storeclient.NewWithToken(ctx, "https://shop.example.com/api", "eyJhbGciOi...")
//
//	// Or with administrator credentials:
//	cli, err = storeclient.NewWithPassword(ctx, "https://shop.example.com/api", "admin", "secret")
//
//	products, err := cli.Products().GetAll(ctx, map[string]string{"limit": "20"})
//	if err != nil { log.Fatal(err) }
//	_ = products
//
// Endpoints without a scheme default to http:// because the backend is
// usually reached on a local port during administration.
package storeclient
