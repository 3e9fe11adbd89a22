package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

// ErrNoUser indica que a requisição chegou sem usuário resolvido
var ErrNoUser = errors.New("no current user")

type ctxKey struct{}

// WithUser associa o usuário ao contexto da requisição
func WithUser(ctx context.Context, u betting.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext devolve o usuário associado ao contexto, se houver
func FromContext(ctx context.Context) (betting.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(betting.User)
	return u, ok && u.ID != uuid.Nil
}

// ContextProvider implementa betting.IdentityProvider lendo o usuário do contexto
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (betting.User, error) {
	u, ok := FromContext(ctx)
	if !ok {
		return betting.User{}, ErrNoUser
	}
	return u, nil
}

// Middleware lê o id do usuário do header preenchido pelo gateway.
// A autenticação acontece antes; aqui só se confia no valor repassado.
func Middleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(header)
			if raw == "" {
				http.Error(w, "missing "+header, http.StatusUnauthorized)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				http.Error(w, "invalid "+header, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), betting.User{ID: id})))
		})
	}
}
