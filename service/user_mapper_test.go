package service

import (
	"go-users-api/model"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserMapper(t *testing.T) {
	m := NewUserMapper()
	id := uuid.New()

	created := m.FromCreate(model.CreateUserRequest{Login: "jdoe", FirstName: "John", LastName: "Doe"})
	assert.Equal(t, uuid.Nil, created.ID)
	assert.Equal(t, "jdoe", created.Login)

	updated := m.FromUpdate(id, model.UpdateUserRequest{Login: "jane", FirstName: "Jane", LastName: "Doe"})
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, model.UpdateUserRequest{Login: "jane", FirstName: "Jane", LastName: "Doe"}, m.ToUpdate(updated))

	resp := m.ToResponse(updated)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "Jane Doe", resp.FullName)

	list := m.ToResponses(nil)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
