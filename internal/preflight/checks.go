package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"tvshows/internal/services"
)

// PlexChecker is the part of the Plex client needed to verify the link.
type PlexChecker interface {
	HasAuthorization() bool
	CheckAuth(ctx context.Context) error
}

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

// CheckPlex verifies the device is linked and the server accepts its token.
func CheckPlex(ctx context.Context, plex PlexChecker) Result {
	const name = "Plex"

	if plex == nil {
		return Result{Name: name, Detail: "client unavailable"}
	}
	if !plex.HasAuthorization() {
		return Result{Name: name, Detail: "not linked (run `tv-shows plex link`)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := plex.CheckAuth(checkCtx)
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case errors.Is(err, services.ErrUnauthorized):
		return Result{Name: name, Detail: "auth failed (run `tv-shows plex link`)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
}

// CheckTVMaze verifies the TVmaze API answers for a known show.
func CheckTVMaze(ctx context.Context, baseURL string, showID int) Result {
	const name = "TVmaze"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base_url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, fmt.Sprintf("%s/shows/%d", base, showID), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusNotFound:
		return Result{Name: name, Detail: fmt.Sprintf("show %d not found", showID)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}
