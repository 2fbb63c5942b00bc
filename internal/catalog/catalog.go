// Package catalog holds the embedded menu, branch, and party package data,
// plus price parsing and product matching.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "embed"
)

//go:embed products.json
var productsJSON []byte

//go:embed locations.json
var locationsJSON []byte

// Product is one sellable menu item.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"` // display price, e.g. "₱389"
	Category    string `json:"category"`
	Image       string `json:"image"`
}

// Location is one physical branch.
type Location struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	GoogleMapsURL string `json:"googleMapsUrl"`
	Image         string `json:"image"`
}

// PartyPackage is one plated or buffet party offering.
type PartyPackage struct {
	ID          string
	Name        string
	Price       string
	Description string
	Image       string
}

// Category names used by the order flow.
const (
	CategoryPizza    = "Pizza"
	CategoryChicken  = "Chicken"
	CategoryPasta    = "Pasta"
	CategoryDrinks   = "Drinks"
	CategoryDesserts = "Desserts"
)

var (
	products  []Product
	locations []Location
)

func init() {
	if err := json.Unmarshal(productsJSON, &products); err != nil {
		panic(fmt.Sprintf("catalog: bad products.json: %v", err))
	}
	if err := json.Unmarshal(locationsJSON, &locations); err != nil {
		panic(fmt.Sprintf("catalog: bad locations.json: %v", err))
	}
}

// Products returns all menu items.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// ProductByID returns the product with the given id.
func ProductByID(id int) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ProductsByCategory returns all products in a category, case-insensitively.
func ProductsByCategory(category string) []Product {
	var out []Product
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// ProductNames returns every product name, for AI extraction prompts.
func ProductNames() []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

// ProductByName returns the product whose name matches exactly,
// case-insensitively.
func ProductByName(name string) (Product, bool) {
	for _, p := range products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Product{}, false
}

// Locations returns all branches.
func Locations() []Location {
	out := make([]Location, len(locations))
	copy(out, locations)
	return out
}

// LocationByChoice resolves a user selection against the branch list: a
// 1-based index, or a case-insensitive substring of the branch name.
func LocationByChoice(choice string) (Location, bool) {
	choice = strings.TrimSpace(choice)
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(locations) {
			return locations[n-1], true
		}
		return Location{}, false
	}
	lower := strings.ToLower(choice)
	if lower == "" {
		return Location{}, false
	}
	for _, l := range locations {
		if strings.Contains(strings.ToLower(l.Name), lower) {
			return l, true
		}
	}
	return Location{}, false
}

// PartyPackages returns the party offerings shown by the party flow.
func PartyPackages() []PartyPackage {
	return []PartyPackage{
		{
			ID:          "plated-a",
			Name:        "Plated Package A",
			Price:       "₱220",
			Description: "1 pc Chicken 'N' Mojos • 2 slices Hawaiian Delight pizza • 1 glass House Blend Iced Tea",
			Image:       "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800",
		},
		{
			ID:          "plated-b",
			Name:        "Plated Package B",
			Price:       "₱250",
			Description: "1 pc Chicken 'N' Mojos • 1 serving Skilletti with garlic bread • 1 glass House Blend Iced Tea",
			Image:       "https://images.unsplash.com/photo-1621996346565-e3dbc646d9a9?w=800",
		},
		{
			ID:          "plated-c",
			Name:        "Plated Package C",
			Price:       "₱299",
			Description: "1 pc Chicken 'N' Mojos • Skilletti with garlic bread • 2 slices Hawaiian pizza • House Blend Iced Tea",
			Image:       "https://images.unsplash.com/photo-1608039829572-78524f79c4c7?w=800",
		},
		{
			ID:          "buffet-a",
			Name:        "Buffet Package A",
			Price:       "₱4,099",
			Description: "Good for 10-12 pax • 2 Large Pizzas • 2 Pasta Family • 12 pcs Chicken • 2 rice platters • 3 pitchers drinks",
			Image:       "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800",
		},
		{
			ID:          "buffet-b",
			Name:        "Buffet Package B",
			Price:       "₱4,799",
			Description: "Good for 10-12 pax • 2 Large Pizzas • 2 Pasta Family • 12 pcs Chicken • 2 Salad Family • 3 pitchers drinks",
			Image:       "https://images.unsplash.com/photo-1574484284002-952d92456975?w=800",
		},
	}
}

// ParsePrice converts a display price like "₱1,149" to its numeric value.
func ParsePrice(price string) (float64, error) {
	cleaned := strings.TrimSpace(price)
	cleaned = strings.ReplaceAll(cleaned, "₱", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price %q", price)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", price, err)
	}
	return v, nil
}
