// Package todo implements per-user task lists.
//
// Every operation is owner-scoped: a todo id from another owner behaves
// exactly like a missing id, so handlers can map ErrNotFound straight to 404
// without leaking existence across accounts.
package todo
