package lockfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v3/process"
)

// PollInterval is how often a held lock is retried.
var PollInterval = time.Second

// Take creates path exclusively, retrying until it succeeds or ctx is done.
// A lock whose recorded pid no longer exists is removed and retaken.
// waiting is invoked on every failed attempt. The returned func releases the
// lock.
func Take(ctx context.Context, path string, waiting func()) (func(), error) {
	tk := time.NewTicker(PollInterval)
	defer tk.Stop()

	var (
		f   *os.File
		err error
	)

	for {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			break
		}

		if !os.IsExist(err) {
			return nil, err
		}

		if removeStale(ctx, path) {
			continue
		}

		if waiting != nil {
			waiting()
		}

		select {
		case <-tk.C:
			// ok
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	closer := func() {
		os.Remove(path)
	}

	return closer, nil
}

// Owner returns the pid recorded in the lock at path. ok is false when the
// file is missing or does not hold a pid yet.
func Owner(path string) (pid int32, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	n, err := strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 32)
	if err != nil || n <= 0 {
		return 0, false
	}

	return int32(n), true
}

func removeStale(ctx context.Context, path string) bool {
	pid, ok := Owner(path)
	if !ok {
		return false
	}

	alive, err := process.PidExistsWithContext(ctx, pid)
	if err != nil || alive {
		return false
	}

	// Another waiter may have replaced the stale lock in the meantime.
	if cur, ok := Owner(path); !ok || cur != pid {
		return false
	}

	hclog.L().Warn("removing stale lock", "path", path, "pid", pid)

	err = os.Remove(path)
	return err == nil || os.IsNotExist(err)
}
