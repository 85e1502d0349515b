package services

import "market/internal/models"

// requireActor fails fast when no identity was resolved for the request.
func requireActor(actor *models.User) error {
	if actor == nil {
		return ErrUnauthorized
	}
	return nil
}

// requireOwner compares a resource's owning-user reference to the actor.
func requireOwner(actor *models.User, ownerID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.ID != ownerID {
		return ErrForbidden
	}
	return nil
}
