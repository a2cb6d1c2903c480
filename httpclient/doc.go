// Package httpclient provides a small HTTP client with bounded retry for
// steps that call external services. Failed requests are retried with a
// linear backoff: the delay before attempt n is n times the base delay.
// After the attempt budget is exhausted the last error is returned.
package httpclient
