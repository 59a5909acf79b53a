package entity

import (
	"strings"
	"time"
)

// ConversationIDSeparator joins the three ids of a conversation key.
const ConversationIDSeparator = "_"

// ConversationID derives the key for the (listing, buyer, owner) triple.
// Order is significant: buyer and owner are not interchangeable.
func ConversationID(listingID, buyerID, ownerID string) string {
	return strings.Join([]string{listingID, buyerID, ownerID}, ConversationIDSeparator)
}

type Role string

const (
	RoleNone  Role = ""
	RoleBuyer Role = "buyer"
	RoleOwner Role = "owner"
)

type Conversation struct {
	ID              string         `json:"id" firestore:"id"`
	ListingID       string         `json:"listing_id" firestore:"listingId"`
	ListingTitle    string         `json:"listing_title" firestore:"listingTitle"`
	ListingImage    string         `json:"listing_image" firestore:"listingImage"`
	BuyerID         string         `json:"buyer_id" firestore:"buyerId"`
	BuyerName       string         `json:"buyer_name" firestore:"buyerName"`
	BuyerEmail      string         `json:"buyer_email" firestore:"buyerEmail"`
	OwnerID         string         `json:"owner_id" firestore:"ownerId"`
	OwnerName       string         `json:"owner_name" firestore:"ownerName"`
	OwnerEmail      string         `json:"owner_email" firestore:"ownerEmail"`
	Participants    []string       `json:"participants" firestore:"participants"`
	LastMessage     string         `json:"last_message" firestore:"lastMessage"`
	LastMessageTime time.Time      `json:"last_message_time" firestore:"lastMessageTime"`
	CreatedAt       time.Time      `json:"created_at" firestore:"createdAt"`
	UnreadCount     map[string]int `json:"unread_count" firestore:"unreadCount"`
}

// ConversationInit is the denormalized snapshot a conversation is created from.
type ConversationInit struct {
	ListingID    string `json:"listing_id" validate:"required"`
	ListingTitle string `json:"listing_title"`
	ListingImage string `json:"listing_image"`
	BuyerID      string `json:"buyer_id" validate:"required"`
	BuyerName    string `json:"buyer_name"`
	BuyerEmail   string `json:"buyer_email"`
	OwnerID      string `json:"owner_id" validate:"required"`
	OwnerName    string `json:"owner_name"`
	OwnerEmail   string `json:"owner_email"`
}

func (i ConversationInit) ConversationID() string {
	return ConversationID(i.ListingID, i.BuyerID, i.OwnerID)
}

// NewConversation builds a fresh record with zeroed unread counters.
// Timestamps are left for the store to assign.
func (i ConversationInit) NewConversation() *Conversation {
	return &Conversation{
		ID:           i.ConversationID(),
		ListingID:    i.ListingID,
		ListingTitle: i.ListingTitle,
		ListingImage: i.ListingImage,
		BuyerID:      i.BuyerID,
		BuyerName:    i.BuyerName,
		BuyerEmail:   i.BuyerEmail,
		OwnerID:      i.OwnerID,
		OwnerName:    i.OwnerName,
		OwnerEmail:   i.OwnerEmail,
		Participants: []string{i.BuyerID, i.OwnerID},
		LastMessage:  "",
		UnreadCount: map[string]int{
			i.BuyerID: 0,
			i.OwnerID: 0,
		},
	}
}

// Init recovers the creation snapshot from a stored conversation.
func (c *Conversation) Init() ConversationInit {
	return ConversationInit{
		ListingID:    c.ListingID,
		ListingTitle: c.ListingTitle,
		ListingImage: c.ListingImage,
		BuyerID:      c.BuyerID,
		BuyerName:    c.BuyerName,
		BuyerEmail:   c.BuyerEmail,
		OwnerID:      c.OwnerID,
		OwnerName:    c.OwnerName,
		OwnerEmail:   c.OwnerEmail,
	}
}

func (c *Conversation) RoleOf(userID string) Role {
	switch userID {
	case "":
		return RoleNone
	case c.BuyerID:
		return RoleBuyer
	case c.OwnerID:
		return RoleOwner
	}
	return RoleNone
}

func (c *Conversation) IsParticipant(userID string) bool {
	return c.RoleOf(userID) != RoleNone
}

// Counterpart returns the participant on the other side of userID.
func (c *Conversation) Counterpart(userID string) Participant {
	if userID == c.BuyerID {
		return Participant{ID: c.OwnerID, Name: c.OwnerName, Email: c.OwnerEmail}
	}
	return Participant{ID: c.BuyerID, Name: c.BuyerName, Email: c.BuyerEmail}
}

func (c *Conversation) UnreadFor(userID string) int {
	return c.UnreadCount[userID]
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	return &out
}

type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
