package core

// Registry maps live connections to their registered users.
// It is not safe for concurrent use; the hub loop owns it.
type Registry struct {
	users map[string]*User
	seq   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*User)}
}

// RegisterShop creates or overwrites the user for connID as a shop.
func (r *Registry) RegisterShop(connID, displayName, shopID string) *User {
	return r.put(connID, displayName, ShopProfile{ShopID: shopID})
}

// RegisterCustomer creates or overwrites the user for connID as a customer.
func (r *Registry) RegisterCustomer(connID, displayName string) *User {
	return r.put(connID, displayName, CustomerProfile{})
}

func (r *Registry) put(connID, displayName string, p Profile) *User {
	r.seq++
	u := &User{
		ConnID:      connID,
		DisplayName: displayName,
		Profile:     p,
		seq:         r.seq,
	}
	r.users[connID] = u
	return u
}

// Find returns the user registered on connID.
func (r *Registry) Find(connID string) (*User, bool) {
	u, ok := r.users[connID]
	return u, ok
}

// FindShop returns the shop registered with shopID. When several connections
// claim the same shop id, the most recently registered one wins.
func (r *Registry) FindShop(shopID string) (*User, bool) {
	var found *User
	for _, u := range r.users {
		p, ok := u.Shop()
		if !ok || p.ShopID != shopID {
			continue
		}
		if found == nil || u.seq > found.seq {
			found = u
		}
	}
	return found, found != nil
}

// FindCustomer returns a live customer whose resolved id (or connection id)
// equals customerID.
func (r *Registry) FindCustomer(customerID string) (*User, bool) {
	var found *User
	for _, u := range r.users {
		if _, ok := u.Customer(); !ok || u.CustomerID() != customerID {
			continue
		}
		if found == nil || u.seq > found.seq {
			found = u
		}
	}
	return found, found != nil
}

// SetCustomerID records the resolved customer id for a customer connection.
// It is a no-op for unknown connections and shops.
func (r *Registry) SetCustomerID(connID, customerID string) {
	u, ok := r.users[connID]
	if !ok {
		return
	}
	if _, isCustomer := u.Customer(); !isCustomer {
		return
	}
	u.Profile = CustomerProfile{CustomerID: customerID}
}

// Remove deletes the user bound to connID.
func (r *Registry) Remove(connID string) {
	delete(r.users, connID)
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	return len(r.users)
}
