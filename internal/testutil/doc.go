// Package testutil contains helper builders and listeners used across tests
// to reduce boilerplate when declaring test classes and asserting the events
// a run produced. They are not intended for production usage.
package testutil
