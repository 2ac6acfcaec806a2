package service

import (
	"go-users-api/model"

	"github.com/google/uuid"
)

// IUserMapper converts between wire payloads and the user entity.
type IUserMapper interface {
	FromCreate(req model.CreateUserRequest) *model.User
	FromUpdate(id uuid.UUID, req model.UpdateUserRequest) *model.User
	ToUpdate(user *model.User) model.UpdateUserRequest
	ToResponse(user *model.User) model.UserResponse
	ToResponses(users []*model.User) model.UserList
}

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

// FromCreate leaves the id nil; the store assigns it on insert.
func (UserMapper) FromCreate(req model.CreateUserRequest) *model.User {
	return &model.User{
		Login:     req.Login,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

func (UserMapper) FromUpdate(id uuid.UUID, req model.UpdateUserRequest) *model.User {
	return &model.User{
		ID:        id,
		Login:     req.Login,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

func (UserMapper) ToUpdate(user *model.User) model.UpdateUserRequest {
	return model.UpdateUserRequest{
		Login:     user.Login,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func (UserMapper) ToResponse(user *model.User) model.UserResponse {
	return model.UserResponse{
		ID:        user.ID,
		Login:     user.Login,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
	}
}

// ToResponses never returns nil so an empty page encodes as [].
func (m UserMapper) ToResponses(users []*model.User) model.UserList {
	out := make(model.UserList, 0, len(users))
	for _, u := range users {
		out = append(out, m.ToResponse(u))
	}
	return out
}
