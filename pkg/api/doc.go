// Package api defines the public types of the draftgate workflow: the
// PostRecord lifecycle, the reviewer Decision, the collaborator contracts
// (ContentGenerator, Publisher), the Engine interface consumed by gateways,
// and the Observer hooks used for logging and metrics.
//
// Most users should import the root draftgate package, which re-exports
// everything here alongside the engine constructors.
package api
