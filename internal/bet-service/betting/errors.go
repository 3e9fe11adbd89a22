package betting

import "errors"

var (
	// ErrNotFound: time, partida ou aposta inexistente (ou de outro usuário)
	ErrNotFound = errors.New("not found")

	ErrInvalidScore  = errors.New("score must be >= 0")
	ErrNotBettable   = errors.New("match teams not decided yet")
	ErrUnknownPolicy = errors.New("unknown score bet policy")
)
