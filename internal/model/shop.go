package model

// Item is a catalog entry. Name is the unique key.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	CreatedAt   int64  `json:"created_at"`
	Solds       int64  `json:"solds"`
	// Stock is the remaining sellable quantity; nil means unlimited.
	Stock *int64 `json:"stock,omitempty"`
}

// InStock reports whether at least one unit can be sold.
func (i Item) InStock() bool {
	return i.Stock == nil || *i.Stock > 0
}

// FindItem returns the index of the item with the given name, or -1.
func FindItem(items []Item, name string) int {
	for i := range items {
		if items[i].Name == name {
			return i
		}
	}
	return -1
}
