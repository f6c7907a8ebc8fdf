package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	owner := Actor{ID: "u1", Role: "owner"}
	admin := Actor{ID: "a1", Role: "admin"}
	stranger := Actor{ID: "u2", Role: "user"}

	tests := []struct {
		name     string
		actor    Actor
		resource Resource
		action   Action
		allowed  bool
	}{
		{"public read is always allowed", Actor{}, Resource{OwnerID: "u1"}, ActionReadPublic, true},
		{"public read allowed even for anonymous actor", Actor{}, Resource{}, ActionReadPublic, true},
		{"admin may mutate anything", admin, Resource{OwnerID: "u1"}, ActionMutate, true},
		{"admin may delete anything", admin, Resource{OwnerID: "u1"}, ActionDelete, true},
		{"owner may read own resource", owner, Resource{OwnerID: "u1"}, ActionRead, true},
		{"owner may mutate own resource", owner, Resource{OwnerID: "u1"}, ActionMutate, true},
		{"owner may delete own resource", owner, Resource{OwnerID: "u1"}, ActionDelete, true},
		{"stranger may not read private resource", stranger, Resource{OwnerID: "u1"}, ActionRead, false},
		{"stranger may not mutate", stranger, Resource{OwnerID: "u1"}, ActionMutate, false},
		{"stranger may not delete", stranger, Resource{OwnerID: "u1"}, ActionDelete, false},
		{"empty owner id never matches empty actor id", Actor{Role: "user"}, Resource{}, ActionMutate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.resource, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnauthorized)
			}
		})
	}
}
