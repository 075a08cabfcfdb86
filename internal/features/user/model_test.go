package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courseflow/courseflow-server/pkg/types"
)

func TestCanManageUserType(t *testing.T) {
	tests := []struct {
		name      string
		requester types.UserType
		target    types.UserType
		want      bool
	}{
		{"superadmin manages admin", UserTypeSuperAdmin, UserTypeAdmin, true},
		{"admin manages instructor", UserTypeAdmin, UserTypeInstructor, true},
		{"admin manages student", UserTypeAdmin, UserTypeStudent, true},
		{"instructor manages student", UserTypeInstructor, UserTypeStudent, true},
		{"admin cannot manage admin", UserTypeAdmin, UserTypeAdmin, false},
		{"instructor cannot manage admin", UserTypeInstructor, UserTypeAdmin, false},
		{"student manages nobody", UserTypeStudent, UserTypeStudent, false},
		{"unknown type is rejected", types.UserType("ghost"), UserTypeStudent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageUserType(tt.requester, tt.target))
		})
	}
}

func TestUserTypeIndexHierarchy(t *testing.T) {
	assert.Less(t, UserTypeIndex(UserTypeStudent), UserTypeIndex(UserTypeInstructor))
	assert.Less(t, UserTypeIndex(UserTypeInstructor), UserTypeIndex(UserTypeAdmin))
	assert.Less(t, UserTypeIndex(UserTypeAdmin), UserTypeIndex(UserTypeSuperAdmin))
	assert.Equal(t, -1, UserTypeIndex(types.UserType("ghost")))
}
