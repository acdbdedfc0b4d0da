package core

// Role is the self-declared kind of a connection.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleShop     Role = "shop"
)

// Profile carries the role-specific part of a User. Only ShopProfile and
// CustomerProfile implement it.
type Profile interface {
	Role() Role
	isProfile()
}

// ShopProfile is attached to connections registered as a shop.
type ShopProfile struct {
	ShopID string
}

func (ShopProfile) Role() Role { return RoleShop }
func (ShopProfile) isProfile() {}

// CustomerProfile is attached to connections registered as a customer.
// CustomerID is empty until the first successful shop join.
type CustomerProfile struct {
	CustomerID string
}

func (CustomerProfile) Role() Role { return RoleCustomer }
func (CustomerProfile) isProfile() {}

// User is the identity bound to one live connection.
type User struct {
	ConnID      string
	DisplayName string
	Profile     Profile

	seq uint64
}

// Role returns the user's role.
func (u *User) Role() Role {
	return u.Profile.Role()
}

// Shop returns the shop profile if the user is a shop.
func (u *User) Shop() (ShopProfile, bool) {
	p, ok := u.Profile.(ShopProfile)
	return p, ok
}

// Customer returns the customer profile if the user is a customer.
func (u *User) Customer() (CustomerProfile, bool) {
	p, ok := u.Profile.(CustomerProfile)
	return p, ok
}

// CustomerID returns the resolved customer id, falling back to the connection id.
func (u *User) CustomerID() string {
	if p, ok := u.Customer(); ok && p.CustomerID != "" {
		return p.CustomerID
	}
	return u.ConnID
}
