// Package guacdb implements administration of a remote-access gateway's
// relational store: identity resolution for users, user groups,
// connections and connection groups; the cycle-free connection-group
// tree; READ permission edges between principals and resources; and
// ordered cascading deletes. All operations run against a Querier so a
// caller can scope a whole command to one transaction via RunInTx.
package guacdb
