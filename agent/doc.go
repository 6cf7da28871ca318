// Package agent provides thin role-holders that plug external reasoning and
// execution logic into the handshake protocol: function adapters wrapping
// plain Go functions, a model-backed reasoner, and a helper for decoding
// opaque proposal actions into typed structs.
package agent
