// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing core model objects (messages, sessions,
// events). They are not intended for production usage.
package testutil
