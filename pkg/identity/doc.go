// Package identity resolves the identifier a caller's notification stream is
// addressed by.
//
// An Identifier is either authenticated (a stable user key supplied by the
// calling context) or anonymous (a client-generated key persisted in a
// cookie). Resolver.Resolve applies a fixed precedence: an explicit
// authenticated identifier always wins, otherwise the anonymous key is read
// from an injected, read-only Lookup. Absence of both is a normal result.
//
//	r := identity.NewResolver(identity.RequestLookup(req))
//	id, ok := r.Resolve(identity.Authenticated(userID))
//
// Creating the anonymous key is not the resolver's job: Bootstrap is the HTTP
// middleware that issues it.
package identity
