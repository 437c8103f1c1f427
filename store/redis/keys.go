package redis

import "fmt"

// continuationKey returns the key holding the continuation record for the
// given job id.
func continuationKey(keyPrefix string, jobID string) string {
	return fmt.Sprintf("%vcontinuation:%v", keyPrefix, jobID)
}
