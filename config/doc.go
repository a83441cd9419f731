// Package config loads the mailgate configuration file.
//
// The file is YAML with a required top-level "checks" mapping. The keys of that
// mapping select which health checks run; a key's presence alone enables its
// check, whatever the contents of its parameter block:
//
//	checks:
//	  nfs_mount:
//	    mounts: [/srv/mail, /srv/spool]
//	  sssd_health:
//	    domain: example.com
//	  user_exists:
//	    users: [vmail]
//
// Parameter blocks are kept as raw YAML until the owning check asks for them
// with Decode, so a malformed block fails that one check instead of the whole
// load. String values inside a block are expanded with ExpandEnvStrict.
package config
