//go:build !linux

package filesystem

import (
	"io/fs"
	"time"
)

// changeTime falls back to the modification time where the inode change
// time is not exposed through syscall.Stat_t.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
