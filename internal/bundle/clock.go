package bundle

import "time"

// timeNow is swapped in tests for deterministic manifests.
var timeNow = time.Now

func nowUnix() int64 {
	return timeNow().Unix()
}
