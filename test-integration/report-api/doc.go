// Package integration provides integration tests for the bfx-report server.
// They run the complete server against a fake remote API and cover
// authentication, synchronization, reporting reads and CSV exports.
package integration
