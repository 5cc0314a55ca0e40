// Package pollengine implements the poll ledger inside the polling context.
//
// A poll is created once with a fixed, ordered set of options and then only
// ever mutated by vote increments. Every vote first materializes a receipt
// addressed by (poll, voter); the receipt slot is an insert-if-absent, so the
// storage layer rather than the caller decides whether a voter may vote again.
// Business rules live in application/domain; memory, postgres and Fabric
// chaincode adapters provide the transactional ledger behind ports.
package pollengine
