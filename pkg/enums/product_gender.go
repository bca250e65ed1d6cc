package enums

import "fmt"

// ProductGender scopes a listing to a section of the storefront.
type ProductGender string

const (
	ProductGenderWomen  ProductGender = "women"
	ProductGenderMen    ProductGender = "men"
	ProductGenderUnisex ProductGender = "unisex"
)

var validProductGenders = []ProductGender{
	ProductGenderWomen,
	ProductGenderMen,
	ProductGenderUnisex,
}

// String implements fmt.Stringer.
func (p ProductGender) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductGender.
func (p ProductGender) IsValid() bool {
	for _, candidate := range validProductGenders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductGender converts raw input into a ProductGender.
func ParseProductGender(value string) (ProductGender, error) {
	for _, candidate := range validProductGenders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product gender %q", value)
}
