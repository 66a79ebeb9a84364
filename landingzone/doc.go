// Package landingzone prepares a management account for the initial
// Control Tower landing zone deployment: the four Control Tower service
// roles, the CloudTrail/Config KMS key, and the two shared accounts
// (LogArchive and Audit).
//
// Every provisioner refuses to touch resources that already exist —
// pre-existing roles or the reserved KMS alias indicate an
// operator-managed or concurrently mutated environment and are fatal.
package landingzone
