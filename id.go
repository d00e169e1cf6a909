package treasury

import "github.com/xraph/treasury/id"

// ID is the primary identifier type for all Treasury entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
