package auth

import (
	"github.com/google/uuid"

	"quillpress/internal/model"
)

// Owned is implemented by every resource whose mutations are restricted to
// its owner: posts, profiles and comments. A nil owner means the resource is
// anonymous and can only be changed through moderation.
type Owned interface {
	Owner() *uuid.UUID
}

// AuthorizeMutation permits a mutation only when identity is present and its
// id equals ownerID.
func AuthorizeMutation(identity *model.Identity, ownerID *uuid.UUID) error {
	if identity == nil || ownerID == nil {
		return model.ErrForbidden
	}
	if identity.ID != *ownerID {
		return model.ErrForbidden
	}
	return nil
}

// AuthorizeOwned is AuthorizeMutation for any Owned resource.
func AuthorizeOwned(identity *model.Identity, resource Owned) error {
	if resource == nil {
		return model.ErrForbidden
	}
	return AuthorizeMutation(identity, resource.Owner())
}
