// Package requestid tags every request of the web front end with an
// X-Request-ID and exposes it to the logger, so login, identity and billing
// records of one request can be correlated.
package requestid
