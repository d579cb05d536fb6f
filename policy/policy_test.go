package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	owner    = Actor{ID: 7, Authenticated: true}
	other    = Actor{ID: 8, Authenticated: true}
	admin    = Actor{ID: 9, Staff: true, Authenticated: true}
	postRef  = Ref{Kind: KindPost, OwnerID: owner.ID}
	userRef  = Ref{Kind: KindUser, OwnerID: owner.ID}
	topicRef = Ref{Kind: KindTopic}
)

func TestUserRules(t *testing.T) {
	for _, action := range []Action{ActionList, ActionRetrieve, ActionCreate} {
		assert.True(t, Can(Anonymous, action, Ref{Kind: KindUser}), string(action))
		assert.True(t, Can(other, action, Ref{Kind: KindUser}), string(action))
	}
	for _, action := range []Action{ActionUpdate, ActionPartialUpdate, ActionDestroy} {
		assert.False(t, Can(Anonymous, action, userRef), string(action))
		assert.False(t, Can(other, action, userRef), string(action))
		assert.True(t, Can(owner, action, userRef), string(action))
		assert.True(t, Can(admin, action, userRef), string(action))
	}
}

func TestTopicRules(t *testing.T) {
	assert.True(t, Can(Anonymous, ActionList, topicRef))
	assert.True(t, Can(Anonymous, ActionRetrieve, topicRef))
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy} {
		assert.False(t, Can(Anonymous, action, topicRef), string(action))
		assert.False(t, Can(owner, action, topicRef), string(action))
		assert.True(t, Can(admin, action, topicRef), string(action))
	}
}

func TestPostRules(t *testing.T) {
	assert.True(t, Can(Anonymous, ActionList, Ref{Kind: KindPost}))
	assert.True(t, Can(Anonymous, ActionRetrieve, postRef))

	assert.False(t, Can(Anonymous, ActionCreate, Ref{Kind: KindPost}))
	assert.True(t, Can(other, ActionCreate, Ref{Kind: KindPost}))

	for _, action := range []Action{ActionUpdate, ActionPartialUpdate, ActionDestroy} {
		assert.False(t, Can(Anonymous, action, postRef), string(action))
		assert.False(t, Can(other, action, postRef), string(action))
		assert.True(t, Can(owner, action, postRef), string(action))
		assert.True(t, Can(admin, action, postRef), string(action))
	}

	assert.False(t, Can(Anonymous, ActionPublish, postRef))
	assert.True(t, Can(owner, ActionPublish, postRef))
	// Authorship for publish is enforced by the handler, not the table.
	assert.True(t, Can(other, ActionPublish, postRef))
}

func TestUnknownActionDenies(t *testing.T) {
	assert.False(t, Can(admin, Action("moderate"), postRef))
	assert.False(t, Can(admin, ActionPublish, topicRef))
	assert.False(t, Can(admin, ActionList, Ref{Kind: Kind("comment")}))
}

func TestStaffFlagRequiresAuthentication(t *testing.T) {
	forged := Actor{ID: 3, Staff: true}
	assert.False(t, Can(forged, ActionDestroy, postRef))
	assert.False(t, Can(forged, ActionCreate, topicRef))
}
