// CLAUDE:SUMMARY ID generation — record IDs via hazyhaar/pkg/idgen, public complaint codes in CMP-XXXXX-XXXX format
package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hazyhaar/pkg/idgen"
)

// NewID generates a 12-character base-36 ID using the canonical idgen package.
func NewID() string {
	return idgen.New()
}

// NewComplaintCode generates a human-readable public complaint code,
// CMP-<last 5 digits of unix millis>-<4 random digits>. Codes are checked
// against the UNIQUE constraint on insert; collisions retry at the caller.
func NewComplaintCode() string {
	millis := time.Now().UnixMilli() % 100000
	return fmt.Sprintf("CMP-%05d-%04d", millis, 1000+rand.Intn(9000))
}
