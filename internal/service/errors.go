package service

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidArgument    = errors.New("invalid argument")
)
