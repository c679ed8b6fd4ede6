package swagger

import "github.com/pkg/errors"

var (
	//ErrInvalidDocument document does not have expected shape
	ErrInvalidDocument = errors.New("invalid swagger document")
	//ErrUnknownSecurityScheme security requirement references undefined scheme
	ErrUnknownSecurityScheme = errors.New("unknown security scheme")
)
