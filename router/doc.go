// Package router implements the super-system dispatch layer. A Router maps
// request classifications to targets (coordination triads or nested routers)
// and forwards each incoming request to the matched target's handshake
// session.
//
// Routing tables follow a reader-many/writer-one discipline: dispatches never
// block on registrations, registrations serialize against each other. There
// is no silent default route, and routing cycles between nested routers are
// detected and rejected at registration time, never at dispatch time.
package router
