// Package auth provides token authentication for the System Bus API.
//
// It implements a 3-tier role model (viewer → operator → admin) with:
//   - HS256 JWT access tokens carrying the caller's role
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Viewers may inspect the bus, operators may register devices and move
// data, and admins may additionally reset the whole bus.
package auth
