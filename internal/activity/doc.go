// Package activity defines the domain model for the wallet's payment
// activity feed: the two activity variants (onchain and lightning), the
// labels attached to them, the provisional metadata recorded before a
// payment exists, and the error taxonomy shared by every store operation.
//
// The types here are plain data carriers; all persistence behavior lives
// in internal/store.
package activity
