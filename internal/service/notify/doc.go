// Package notify implements the convoy notification engine: a pure
// composer that renders customer emails from Liquid templates, and a batch
// notifier that deduplicates recipients, paces sends under the transport's
// throttling ceiling, retries transient failures with linear backoff, and
// reports per-recipient outcomes.
package notify
