// Package apcloudy provides a client for the APCloudy web-scraping platform
// REST API.
//
// APCloudy hosts scraping projects, the spiders deployed into them and the
// jobs that run those spiders. This package wraps the platform's JSON API
// with typed entities, a shared dispatcher and a structured error taxonomy.
//
// # Architecture
//
//   - Client: single entry point owning authentication, per-attempt
//     timeouts, retry with exponential backoff and client-side rate limiting
//   - ProjectsService, SpidersService, JobsService: typed operations per
//     resource, all delegating to the same dispatcher
//   - ItemIterator: lazy cursor over a job's scraped items
//   - Errors: sentinel classes plus structured APIError
//
// # Usage
//
// Create a client with your API key:
//
//	logger := zerolog.New(os.Stdout)
//	client, err := apcloudy.New(
//		"your-api-key",
//		apcloudy.WithLogger(logger),
//		apcloudy.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	projects, err := client.Projects.List(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Stream a job's scraped items without loading them all into memory:
//
//	it := client.Jobs.IterItems("job-id", 500)
//	defer it.Close()
//	for it.Next(ctx) {
//		process(it.Item())
//	}
//	if err := it.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// # Retry Behavior
//
// Network failures and 5xx responses are retried up to the configured
// count with exponential backoff; the timeout applies per attempt. 401 and
// 429 are never retried: authentication failures are not transient, and a
// rate-limit hit is surfaced immediately so the caller decides how to back
// off.
//
// # Error Handling
//
// Every remote failure is an *APIError. Three sentinel classes allow broad
// matching with errors.Is:
//
//   - ErrAuthentication: bad or missing API key (401/403)
//   - ErrNotFound: the requested resource is absent (404)
//   - ErrRateLimited: the rate limit was exceeded (429)
//
// Services translate 404 into *NotFoundError naming the resource:
//
//	job, err := client.Jobs.Get(ctx, id)
//	if errors.Is(err, apcloudy.ErrNotFound) {
//		// job is gone
//	}
//
// Empty identifiers fail fast with *ValidationError before any network
// round trip.
//
// # Thread Safety
//
// A Client is safe for concurrent use. ItemIterator is not.
package apcloudy
