// Package domain contains the core model for subnotify: host sets, the diff
// and merge rules applied between scans, iteration results and errors.
//
// The domain is transport- and persistence-agnostic: it does not spawn
// processes, speak HTTP or touch the filesystem. Infra/adapters map into/from
// these types.
package domain
