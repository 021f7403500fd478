package catalogfeed

import (
	"fmt"
)

// RawItem is one entry of GET /items.
type RawItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// RawStock is one entry of GET /stock.
type RawStock struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type APIError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("catalog feed error: %v", e.Errors)
}
