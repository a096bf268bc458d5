// Package cli implements keyquota-cli, the administration tool for project
// quotas. Every command talks to a running keyquota server over its HTTP API.
//
// # Commands
//
// set: Replace the quota overrides of a project. Resources not given on the
// command line fall back to the server defaults.
//
//	keyquota-cli set -project acme -orders 100 -secrets -1
//
// get: Show the configured overrides of a project
//
//	keyquota-cli get -project acme
//
// list: Page through projects that have overrides
//
//	keyquota-cli list -offset 0 -limit 10
//
// delete: Remove the overrides of a project
//
//	keyquota-cli delete -project acme
//
// effective: Show the quotas that apply to a project after defaults
//
//	keyquota-cli effective -project acme
//
// Every command accepts -endpoint (default $KEYQUOTA_ENDPOINT or
// http://localhost:9311) and -timeout.
package cli
