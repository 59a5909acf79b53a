package view

import "estatechat/internal/domain/entity"

type Filter string

// The tab names follow the labels the product shows. "buyers" lists the
// conversations where the viewer owns the listing (inquiries coming from
// buyers) and "sellers" the ones where the viewer is the buyer.
const (
	FilterAll     Filter = "all"
	FilterBuyers  Filter = "buyers"
	FilterSellers Filter = "sellers"
)

var filterLabels = []struct {
	filter Filter
	label  string
}{
	{FilterAll, "All"},
	{FilterBuyers, "Buyers"},
	{FilterSellers, "Sellers"},
}

func ParseFilter(s string) (Filter, bool) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterBuyers:
		return FilterBuyers, true
	case FilterSellers:
		return FilterSellers, true
	}
	return FilterAll, false
}

func (f Filter) Matches(conv *entity.Conversation, userID string) bool {
	switch f {
	case FilterBuyers:
		return conv.OwnerID == userID
	case FilterSellers:
		return conv.BuyerID == userID
	}
	return true
}

// FilterConversations keeps input order.
func FilterConversations(conversations []*entity.Conversation, userID string, f Filter) []*entity.Conversation {
	out := make([]*entity.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		if f.Matches(conv, userID) {
			out = append(out, conv)
		}
	}
	return out
}
