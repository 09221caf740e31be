// Package server assembles the gateway: configuration in, a running HTTP
// server out. All adapters are constructed here and injected into the
// handlers; nothing else holds process-wide state.
package server
