// Package billing is the payment provider contract of the web front end:
// create a hosted checkout, look it up after the redirect back, and open the
// customer portal.
//
// PaddleProvider implements Provider with github.com/PaddleHQ/paddle-go-sdk/v4.
// A checkout session is a Paddle transaction created from a catalog price;
// its custom data carries the user ID so webhooks and lookups can be tied
// back to the account.
package billing
