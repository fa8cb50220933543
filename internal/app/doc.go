// Package app contains the core application logic. It wires the fetch
// job pipeline together: load declarations, expand over manifests,
// validate, compile, assemble, and emit task records for the external
// graph framework. It is decoupled from any specific entrypoint.
package app
