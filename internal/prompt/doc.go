// Package prompt collects template variable values interactively. The
// Driver interface abstracts the terminal so the collection logic can be
// tested with a scripted fake.
package prompt
