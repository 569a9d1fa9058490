package label

import (
	"time"

	"github.com/google/uuid"
)

// Sale is the business record a label belongs to. It is owned by an external store.
type Sale struct {
	ID            uuid.UUID
	ProductNumber string
	Title         string
	SoldAt        time.Time
	Carrier       string
	Marketplace   string
}

// Attachment is the stored shipping-label file of a sale
type Attachment struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	Path      string
	Filename  string
	CreatedAt time.Time
}
