package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationHelpers(t *testing.T) {
	admin := int64(1)
	conv := Conversation{
		Type:    ConversationGroup,
		AdminID: &admin,
		Members: []Member{
			{UserID: 1, Role: RoleAdmin},
			{UserID: 2, Role: RoleModerator},
			{UserID: 3, Role: RoleMember},
		},
	}

	assert.Equal(t, []int64{1, 2, 3}, conv.ParticipantIDs())
	assert.True(t, conv.HasParticipant(2))
	assert.False(t, conv.HasParticipant(9))
	assert.Equal(t, RoleModerator, conv.RoleOf(2))
	assert.Equal(t, MemberRole(""), conv.RoleOf(9))
	assert.True(t, conv.IsAdmin(1))
	assert.False(t, conv.IsAdmin(2))
}
