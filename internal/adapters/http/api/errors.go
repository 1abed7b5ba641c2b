package api

import "errors"

// ErrBadRequest wraps request decoding and validation failures.
var ErrBadRequest = errors.New("bad request")
