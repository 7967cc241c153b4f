package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIsActive(t *testing.T) {
	user := User{Status: StatusActive}
	assert.True(t, user.IsActive())

	for _, status := range []string{StatusPending, StatusBlocked} {
		user.Status = status
		assert.False(t, user.IsActive(), "status %s must not authenticate", status)
	}
}

func TestUserRoleSet_AlwaysIncludesBaseRole(t *testing.T) {
	admin := User{Roles: StringList{RoleAdmin}}
	roles := admin.RoleSet()
	assert.Contains(t, roles, RoleUser)
	assert.Contains(t, roles, RoleAdmin)

	plain := User{Roles: StringList{RoleUser}}
	assert.Equal(t, StringList{RoleUser}, plain.RoleSet())

	empty := User{}
	assert.Equal(t, StringList{RoleUser}, empty.RoleSet())
}

func TestUserSetStatus(t *testing.T) {
	var user User

	assert.NoError(t, user.SetStatus(StatusActive))
	assert.Equal(t, StatusActive, user.Status)

	err := user.SetStatus("SUSPENDED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, StatusActive, user.Status, "a rejected status must not be applied")
}

func TestNewsletterSubscriptionLifecycle(t *testing.T) {
	var sub NewsletterSubscription

	sub.Subscribe()
	assert.Equal(t, NewsletterStatusActive, sub.Status)
	assert.Nil(t, sub.UnsubscribedAt)
	assert.False(t, sub.SubscribedAt.IsZero())

	sub.Unsubscribe()
	assert.Equal(t, NewsletterStatusUnsubscribed, sub.Status)
	assert.NotNil(t, sub.UnsubscribedAt)

	// Resubscribing clears the opt-out mark.
	sub.Subscribe()
	assert.Equal(t, NewsletterStatusActive, sub.Status)
	assert.Nil(t, sub.UnsubscribedAt)
}
