// Package mounts reads the live mount table and matches it against a
// configured watch list.
//
// The table is the whitespace-delimited fstab-style format exposed by the
// kernel in /proc/mounts: device, mount point, filesystem type, comma-separated
// options, then dump and pass fields. Only entries whose filesystem type is
// tracked (by default nfs and nfs4) are returned.
package mounts
