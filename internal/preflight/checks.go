package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"fieldsync/internal/config"
)

// minFreeBytes is the free-space floor below which the disk check fails.
// The queue database grows slowly, so the floor stays small.
const minFreeBytes = 64 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies that the filesystem holding path has room for the
// queue database to grow.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckRemote verifies the remote health endpoint responds. An unreachable
// remote is normal for an offline device, so this check failing only means
// sync starts deferred until connectivity returns.
func CheckRemote(ctx context.Context, cfg *config.Config) Result {
	probeURL := strings.TrimRight(cfg.Remote.BaseURL, "/") + cfg.Remote.ProbePath

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, probeURL, nil)
	if err != nil {
		return Result{Name: "Remote reachability", Detail: fmt.Sprintf("%s (error: %v)", probeURL, err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: "Remote reachability", Detail: fmt.Sprintf("%s (unreachable: %v)", probeURL, err)}
	}
	defer resp.Body.Close()

	// Any HTTP response means the remote is up, even an auth rejection.
	return Result{Name: "Remote reachability", Passed: true, Detail: fmt.Sprintf("%s (%s)", probeURL, resp.Status)}
}
