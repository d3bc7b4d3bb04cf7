// Package storage persists propagation runs.
//
// Each run gets a directory under the store root holding metadata.json and
// states.csv. A sqlite catalog (catalog.db) indexes runs and their scalar
// metrics so listing does not need to walk the tree.
package storage
