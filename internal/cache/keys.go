package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func ExplainResultKey(ownerID uuid.UUID, reportHash string) string {
	return fmt.Sprintf("ai:explain:%s:%s", ownerID, reportHash)
}
