package graph

import (
	"context"
	"crypto/subtle"

	"github.com/graph-gophers/graphql-go"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/model"
)

func (r *Resolver) AdminStats(ctx context.Context) (*AdminStatsResolver, error) {
	return guarded(ctx, r.adminGate, "adminStats", func(*model.User) (*AdminStatsResolver, error) {
		s, err := r.stats.Counts(ctx)
		if err != nil {
			return nil, err
		}
		return &AdminStatsResolver{s: s}, nil
	})
}

func (r *Resolver) AllUsers(ctx context.Context) ([]*UserResolver, error) {
	return guarded(ctx, r.adminGate, "allUsers", func(*model.User) ([]*UserResolver, error) {
		users, err := r.users.List(ctx)
		if err != nil {
			return nil, err
		}
		return r.userResolvers(users), nil
	})
}

type codeArgs struct {
	Code string
}

// VerifyAdminSecurityCode checks the shared unlock secret. It has its own
// throttle, keyed by origin like the admin gate but counted separately.
func (r *Resolver) VerifyAdminSecurityCode(ctx context.Context, args codeArgs) (bool, error) {
	origin := auth.Origin(ctx)
	if !r.codeLimiter.Allow(origin) {
		r.logger.Warn("security code verification throttled", "origin", origin)
		return false, newError(CodeTooManyRequests, "Too many verification attempts, please try again later")
	}

	if r.cfg.AdminSecurityCode == "" {
		r.logger.Error("ADMIN_SECURITY_CODE is not set")
		return false, newError(CodeInternal, "Server configuration error")
	}
	if subtle.ConstantTimeCompare([]byte(args.Code), []byte(r.cfg.AdminSecurityCode)) != 1 {
		r.logger.Warn("invalid security code attempt", "origin", origin)
		return false, newError(CodeUnauthenticated, "Invalid security code")
	}
	return true, nil
}

type setAdminStatusArgs struct {
	UserID  graphql.ID
	IsAdmin bool
}

func (r *Resolver) SetAdminStatus(ctx context.Context, args setAdminStatusArgs) (*UserResolver, error) {
	return guarded(ctx, r.adminGate, "setAdminStatus", func(admin *model.User) (*UserResolver, error) {
		id, err := parseID(args.UserID)
		if err != nil {
			return nil, err
		}
		if id == admin.ID && !args.IsAdmin {
			return nil, newError(CodeBadUserInput, "You cannot remove your own admin privileges")
		}
		if _, err := r.existingUser(ctx, id); err != nil {
			return nil, err
		}
		u, err := r.users.SetAdmin(ctx, id, args.IsAdmin)
		if err != nil {
			return nil, err
		}
		return &UserResolver{r: r, u: u}, nil
	})
}

type userIDArgs struct {
	UserID graphql.ID
}

// DeleteUser removes a user along with their messages and todos.
func (r *Resolver) DeleteUser(ctx context.Context, args userIDArgs) (bool, error) {
	return guarded(ctx, r.adminGate, "deleteUser", func(admin *model.User) (bool, error) {
		id, err := parseID(args.UserID)
		if err != nil {
			return false, err
		}
		if id == admin.ID {
			return false, newError(CodeBadUserInput, "You cannot delete your own account")
		}
		if _, err := r.existingUser(ctx, id); err != nil {
			return false, err
		}
		if err := r.users.Delete(ctx, id); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (r *Resolver) existingUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("User")
	}
	return u, nil
}
