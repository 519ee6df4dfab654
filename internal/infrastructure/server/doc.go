// Package server wires configuration, the attention store, the intent
// coordinator and the gin router into a runnable service.
package server
