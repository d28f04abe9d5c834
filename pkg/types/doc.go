// Package types holds the domain values shared by the detectors, the
// reconciliation controller and the poll loop, together with the
// collaborator interfaces they depend on (store client, prompts,
// notifications, hooks, links).
package types
