// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing messages, runtimes and persistence
// collaborators. They are not intended for production usage.
package testutil
