// Package dispatch is a minimal command registry: names are bound to
// handlers once at startup and looked up per request. It exists so the
// surrounding API layer can wire commands without reflection.
package dispatch
