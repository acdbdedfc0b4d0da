package core

import "strings"

// ChannelSeparator joins the customer and shop halves of a ChannelID.
const ChannelSeparator = "-"

// ChannelID identifies a single customer<->shop conversation: "<customerID>-<shopID>".
//
// The split is only unambiguous when neither half contains the separator. The
// helpers below never split blindly; they strip the half the caller already knows.
type ChannelID string

// DeriveChannelID builds the canonical channel id, customer first.
func DeriveChannelID(customerID, shopID string) ChannelID {
	return ChannelID(customerID + ChannelSeparator + shopID)
}

func (c ChannelID) String() string { return string(c) }

// BelongsToShop reports whether the channel id ends with "-<shopID>".
func (c ChannelID) BelongsToShop(shopID string) bool {
	if shopID == "" {
		return false
	}
	return strings.HasSuffix(string(c), ChannelSeparator+shopID)
}

// BelongsToCustomer reports whether the channel id starts with "<customerID>-".
func (c ChannelID) BelongsToCustomer(customerID string) bool {
	if customerID == "" {
		return false
	}
	return strings.HasPrefix(string(c), customerID+ChannelSeparator)
}

// CustomerOf recovers the customer half of a channel owned by shopID.
func (c ChannelID) CustomerOf(shopID string) (string, bool) {
	if !c.BelongsToShop(shopID) {
		return "", false
	}
	return strings.TrimSuffix(string(c), ChannelSeparator+shopID), true
}

// ShopOf recovers the shop half of a channel opened by customerID.
func (c ChannelID) ShopOf(customerID string) (string, bool) {
	if !c.BelongsToCustomer(customerID) {
		return "", false
	}
	return strings.TrimPrefix(string(c), customerID+ChannelSeparator), true
}
