package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserKeepsRoleSpecificFields(t *testing.T) {
	in := []byte(`{"id":3,"username":"mira","password":"pw","name":"Mira","role":"mentor","expertise":["Go","SQL"],"isApproved":true}`)

	var u User
	require.NoError(t, json.Unmarshal(in, &u))
	assert.Equal(t, "3", u.ID.String())
	assert.Equal(t, RoleMentor, u.Role)
	assert.True(t, u.IsApproved)
	require.Contains(t, u.Extra, "expertise")

	out, err := json.Marshal(u)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, []any{"Go", "SQL"}, back["expertise"])
	assert.Equal(t, "mira", back["username"])
}

func TestUserBannedAndPublic(t *testing.T) {
	u := User{Username: "x", Password: "secret", Status: StatusBanned}
	assert.True(t, u.Banned())
	assert.True(t, User{IsBanned: true}.Banned())
	assert.False(t, User{Status: StatusActive}.Banned())

	assert.Empty(t, u.Public().Password)
	assert.Equal(t, "secret", u.Password)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMentee.Valid())
	assert.False(t, Role("root").Valid())
}
