// Package fetcher retrieves the rendered HTML of documentation pages.
//
// Two implementations share the Fetcher interface: HTTPFetcher issues plain
// GET requests and suits statically rendered sites, while BrowserFetcher
// drives headless Chromium through go-rod for sites that build their
// navigation client-side. Throttle and Instrumented wrap either one.
//
// Design decision: a missing page is an error value (ErrNotFound) rather than
// a nil page. Callers in the crawl and diff engines already treat every fetch
// error as "this page is gone", and errors.Is keeps the not-found case
// distinguishable for logging and metrics.
package fetcher
