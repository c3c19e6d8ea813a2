// Package sources retrieves collection data from the remote trading data API.
//
// The Source interface is what the sync engine pages through: bounded, date
// windowed pages of append-only collections and full snapshots of replaceable
// ones. RESTSource implements it against the v2 REST API, where rows arrive as
// positional JSON arrays that are mapped onto registry models by layouts.
package sources
