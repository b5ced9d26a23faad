// Package client provides the `wpq` command-line client.
//
// The CLI talks to the wpq HTTP API to perform common queue operations
// from a terminal. It is primarily intended for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it reads
// WPQ_HTTP and defaults to http://127.0.0.1:8080.
//
// Usage
//
//	wpq queue push --group emails --item '{"to":"a@example.com"}' --item '{"to":"b@example.com"}'
//	wpq queue push --group imports --items-file jobs.ndjson --dispatch=false
//
//	wpq queue status
//	wpq queue batches --filter 'group == "emails" && items > 10'
//
//	# Trigger a pass manually (the server normally self-chains)
//	wpq queue run --wait
//
//	# Drop the oldest stored batch
//	wpq queue cancel --confirm
//
//	# Check server health
//	wpq health
package client
