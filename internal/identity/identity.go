// Package identity maps CRM actor identifiers onto stable UUIDs for audit
// rows. The mapping is deterministic so the same actor always produces the
// same UUID without a lookup table.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// actorNamespace scopes actor UUIDs to this product. Generated once, fixed
// forever; changing it would re-key every audit row.
var actorNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// ActorUUID derives a stable UUID for a CRM actor id such as "user-42" or
// "system". Blank input maps to the system actor.
func ActorUUID(actorID string) string {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = "system"
	}
	return uuid.NewSHA1(actorNamespace, []byte(actorID)).String()
}
