package comanda

import (
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateMenuItem validates a menu item before upsert. The name must
// survive normalization and must not collide with the document field
// syntax of the aggregate store.
func ValidateMenuItem(item *MenuItem) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(item.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if strings.ContainsAny(item.Name, ".$") {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name cannot contain '.' or '$'",
		})
	}

	if item.UnitValue <= 0 {
		errs = append(errs, ValidationError{
			Field:   "unit_value",
			Message: "unit value must be a positive integer",
		})
	}

	return errs
}

// ValidateOrderItems validates a submitted line item list. Submissions
// are rejected before any store call when empty.
func ValidateOrderItems(items []LineItem) []ValidationError {
	var errs []ValidationError

	if len(items) == 0 {
		errs = append(errs, ValidationError{
			Field:   "items",
			Message: "at least one line item is required",
		})
		return errs
	}

	for _, it := range items {
		if strings.ContainsAny(it.Name, ".$") {
			errs = append(errs, ValidationError{
				Field:   "items",
				Message: "item names cannot contain '.' or '$'",
			})
			break
		}
	}

	return errs
}
