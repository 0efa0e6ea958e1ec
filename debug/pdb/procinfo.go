package pdb

import (
	"strings"
	"time"

	psprocess "github.com/shirou/gopsutil/v4/process"
	"github.com/xhd2015/pdb-mcp/debug/common"
)

// describeProcess reads what the OS knows about pid. Missing fields are
// left zero; only a vanished process is an error.
func describeProcess(pid int) (*common.ProcessInfo, error) {
	proc, err := psprocess.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}

	info := &common.ProcessInfo{PID: pid}
	if statuses, err := proc.Status(); err == nil {
		info.Status = strings.Join(statuses, ",")
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}
	if created, err := proc.CreateTime(); err == nil {
		info.CreatedAt = time.UnixMilli(created)
	}
	return info, nil
}

// processAlive reports whether pid still exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := psprocess.PidExists(int32(pid))
	return err == nil && ok
}
