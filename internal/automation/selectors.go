// File: internal/automation/selectors.go
package automation

import "fmt"

// Selectors names every element the storefront flow touches. The set is
// immutable and owned by the site implementation; no shared global state.
type Selectors struct {
	UsernameField string
	PasswordField string
	LoginButton   string
	InventoryList string
	ProductItem   string
	ProductName   string
	AddToCart     string
	CartLink      string
	CartItem      string
	CartItemName  string
	RemoveButton  string
	MenuButton    string
	LogoutLink    string
	InventoryPath string
}

// SauceDemoSelectors returns the selector set for saucedemo.com.
func SauceDemoSelectors() Selectors {
	return Selectors{
		UsernameField: "#user-name",
		PasswordField: "#password",
		LoginButton:   "#login-button",
		InventoryList: ".inventory_list",
		ProductItem:   ".inventory_item",
		ProductName:   ".inventory_item_name",
		AddToCart:     ".btn_inventory",
		CartLink:      ".shopping_cart_link",
		CartItem:      ".cart_item",
		CartItemName:  ".inventory_item_name",
		RemoveButton:  ".btn_secondary",
		MenuButton:    "#react-burger-menu-btn",
		LogoutLink:    "#logout_sidebar_link",
		InventoryPath: "/inventory.html",
	}
}

// Nth scopes a repeated selector to its i-th sibling match (1-based).
func Nth(selector string, i int) string {
	return fmt.Sprintf("%s:nth-child(%d)", selector, i)
}
