package middleware

import "errors"

var (
	errMissingToken     = errors.New("missing or invalid token")
	errIncompleteClaims = errors.New("token must carry an interviewer id and email")
)
