package entity

type Listing struct {
	ID         string   `json:"id" firestore:"-"`
	Title      string   `json:"title" firestore:"title"`
	Images     []string `json:"images" firestore:"images"`
	OwnerID    string   `json:"owner_id" firestore:"ownerId"`
	OwnerName  string   `json:"owner_name" firestore:"ownerName"`
	OwnerEmail string   `json:"owner_email" firestore:"ownerEmail"`
}

func (l *Listing) CoverImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
