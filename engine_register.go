package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Register creates a new account. The login must be unique; a taken login
// returns [ErrUserExists]. A password below the hasher's minimum returns
// [ErrPasswordPolicy]. Registering does not log the user in.
func (e *Engine) Register(ctx context.Context, login, plainPassword string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if login == "" {
		return nil, errors.New("login must not be empty")
	}

	hash, err := e.hasher.Hash(plainPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"login": login}
		})
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	user := Identity{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
	}

	if err := e.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrUserExists, func() map[string]string {
				return map[string]string{"login": login}
			})
			return nil, ErrUserExists
		}
		return nil, e.mapStoreErr(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, nil)

	// Never hand the hash back to callers.
	user.PasswordHash = ""
	return &user, nil
}
