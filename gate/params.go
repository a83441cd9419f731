package gate

import (
	"time"
)

// NFSMountParams is the nfs_mount parameter block.
type NFSMountParams struct {
	Mounts  []string      `yaml:"mounts"`
	Timeout time.Duration `yaml:"timeout"`
	Shuffle bool          `yaml:"shuffle"`

	// FSTypes lists the tracked filesystem kinds.
	// Default: nfs, nfs4
	FSTypes []string `yaml:"fs_types"`

	// MountTable is the live mount table to read.
	// Default: /proc/mounts
	MountTable string `yaml:"mount_table"`
}

// SSSDHealthParams is the sssd_health parameter block.
type SSSDHealthParams struct {
	Domain  string        `yaml:"domain"`
	Tool    string        `yaml:"tool"`
	Timeout time.Duration `yaml:"timeout"`
}

// UserExistsParams is the user_exists parameter block.
type UserExistsParams struct {
	Users   []string      `yaml:"users"`
	Timeout time.Duration `yaml:"timeout"`
}
