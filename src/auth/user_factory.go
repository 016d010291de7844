package auth

import "resourcedb/src/helpers"

type UserFactory interface {
	NewUserStruct(userName string, password string) *NewUser
}

type UserFactoryImpl struct{}

func NewUserFactory() UserFactory {
	return &UserFactoryImpl{}
}

func (f *UserFactoryImpl) NewUserStruct(userName string, password string) *NewUser {
	return &NewUser{
		UserID:   helpers.GenerateUUID(),
		Username: userName,
		Password: password,
	}
}
