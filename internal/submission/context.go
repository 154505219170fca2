package submission

import (
	"context"
	"time"
)

// blobContext bounds best-effort evidence cleanup so a slow blob store
// never stalls a rejection.
func blobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
