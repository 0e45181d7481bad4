// Package a2a is a small JSON-RPC 2.0 client for remote agents speaking the
// Agent2Agent protocol.
//
// It covers the three methods a task needs: message/send for unary delivery,
// message/stream for server-sent event delivery and task/get to fetch the
// final state of a task that did not complete within its stream. Results are
// returned as raw JSON so callers can record them verbatim.
package a2a
