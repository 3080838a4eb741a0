package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"movienight-server/internal/storage"
	pkghttpx "movienight-server/pkg/httpx"
)

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// storeError maps storage sentinel errors onto the HTTP taxonomy.
func storeError(what string, err error) *pkghttpx.HTTPError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return pkghttpx.NotFound(what+" not found", err)
	case errors.Is(err, storage.ErrMovieWatched):
		return pkghttpx.Conflict("movie is marked as watched by a meeting", err)
	default:
		return pkghttpx.Internal("failed to access "+what, err)
	}
}

// sessionToken extracts the admin session token from the request.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		return auth[7:]
	}
	return r.Header.Get("X-Admin-Token")
}

func resultsCacheKey(meetingID *int64) string {
	if meetingID == nil {
		return "results:all"
	}
	return fmt.Sprintf("results:meeting:%d", *meetingID)
}

// invalidateResults drops cached results for a meeting and the global scope.
func invalidateResults(r *http.Request, d Deps, meetingID int64) {
	ctx := r.Context()
	_ = d.Cache.Delete(ctx, resultsCacheKey(nil))
	_ = d.Cache.Delete(ctx, resultsCacheKey(&meetingID))
}
