// Package preflight provides readiness checks for the filesystem paths,
// credentials, and capture tools StreamVault depends on.
//
// The daemon runs RunAll at startup and logs every failed check; the CLI
// "streamvault status" command renders the same results for operators.
package preflight
