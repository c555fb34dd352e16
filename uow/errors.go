package uow

import "github.com/cockroachdb/errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrKeyComponent = errors.New("unsupported primary key component")
)
