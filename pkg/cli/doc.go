// Package cli implements the guacadm command tree. Every leaf command
// loads configuration, opens the gateway database and runs its work in a
// single transaction.
package cli
