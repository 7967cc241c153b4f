package models

import "time"

const (
	NewsletterStatusActive       = "active"
	NewsletterStatusUnsubscribed = "unsubscribed"
)

type NewsletterSubscription struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"size:180;uniqueIndex;not null"`
	Status         string     `json:"status" gorm:"size:20;not null;default:'active'"`
	SubscribedAt   time.Time  `json:"subscribed_at" gorm:"not null"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Subscribe reactivates the subscription, clearing any unsubscribe mark.
func (n *NewsletterSubscription) Subscribe() {
	n.Status = NewsletterStatusActive
	n.SubscribedAt = time.Now()
	n.UnsubscribedAt = nil
}

// Unsubscribe marks the subscription inactive with the opt-out time.
func (n *NewsletterSubscription) Unsubscribe() {
	now := time.Now()
	n.Status = NewsletterStatusUnsubscribed
	n.UnsubscribedAt = &now
}
