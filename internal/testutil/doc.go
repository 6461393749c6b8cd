// Package testutil provides helpers shared by tests that touch the run store.
package testutil
