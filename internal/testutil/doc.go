// Package testutil contains fluent builders and helpers shared by the
// package tests. It is internal: nothing here is part of the public API.
package testutil
