// Package organization reconciles the desired organizational-unit
// hierarchy against live AWS Organizations and AWS Control Tower state.
//
// A single Module.Run pass builds an in-memory index of existing OUs,
// plans per-OU actions, creates missing OUs in parent-before-child
// order, registers OUs with the Control Tower baseline, and invites and
// moves pre-existing accounts into their configured OUs. Execution is
// strictly sequential; asynchronous AWS operations (baseline
// registration, handshake acceptance) are polled to a terminal state
// before the next unit of work starts.
package organization
