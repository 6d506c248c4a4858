// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/whatsapp-agent/internal/domain"
)

// Repository defines the interface for the client directory database.
// Lookup methods return (nil, nil) when no matching user exists.
type Repository interface {
	// FindByPhone retrieves an active user by phone number (E.164).
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)

	// FindByClientCode retrieves an active user by their client-issued code.
	FindByClientCode(ctx context.Context, code string) (*domain.User, error)

	// InsertUser adds a user to the directory.
	InsertUser(ctx context.Context, user *domain.User) error

	// CountUsers returns the number of directory rows, for seed checks.
	CountUsers(ctx context.Context) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
