package services

import (
	"github.com/yukikurage/taskhub-api/internal/models"
)

// Actor is the authenticated identity performing an operation. A nil
// *Actor means the caller is anonymous.
type Actor struct {
	ID       uint64
	Username string
	Role     models.UserRole
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

func ActorFromUser(u *models.User) *Actor {
	return &Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// RolePolicy controls whether an admin role may be taken away.
type RolePolicy struct {
	// AllowAdminDemotion lets an admin downgrade another admin.
	AllowAdminDemotion bool
	// AllowSelfDemotion lets an admin downgrade their own account.
	AllowSelfDemotion bool
}

// Policy evaluates authorization rules before state is mutated.
type Policy struct {
	Roles RolePolicy
}

func requireActor(actor *Actor) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	return nil
}

func (p Policy) CanDeleteTask(actor *Actor, task *models.Task) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || task.CreatedBy == actor.ID {
		return nil
	}
	return ErrNotTaskCreator
}

// CanDeleteComment checks the actor against the comment author, which is
// nil when the author no longer exists.
func (p Policy) CanDeleteComment(actor *Actor, author *models.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || (author != nil && author.Username == actor.Username) {
		return nil
	}
	return ErrNotCommentAuthor
}

func (p Policy) CanManageUsers(actor *Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// CanUpdateUser lets admins update anyone and users update themselves.
// Users may not change their own role or active flag.
func (p Policy) CanUpdateUser(actor *Actor, target *models.User, patch UserPatch) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	self := actor.ID == target.ID

	if !actor.IsAdmin() {
		if !self {
			return ErrAdminRequired
		}
		if patch.Role != nil && *patch.Role != target.Role {
			return ErrSelfPrivilegeChange
		}
		if patch.IsActive != nil && *patch.IsActive != target.IsActive {
			return ErrSelfPrivilegeChange
		}
		return nil
	}

	demotion := patch.Role != nil && target.IsAdmin() && *patch.Role != models.RoleAdmin
	if demotion {
		if self && !p.Roles.AllowSelfDemotion {
			return ErrRoleChangeForbidden
		}
		if !self && !p.Roles.AllowAdminDemotion {
			return ErrRoleChangeForbidden
		}
	}
	return nil
}
