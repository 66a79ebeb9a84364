// Package gwconfig models the accelerator configuration files
// (global-config.yaml, accounts-config.yaml, organization-config.yaml)
// and loads them from a local directory or an S3 bucket.
//
// The configuration is treated as pre-validated desired state: loaders
// parse and validate structure, but reconciliation against live AWS
// state happens in the organization package.
package gwconfig
