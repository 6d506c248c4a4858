package store

import (
	"context"
	"fmt"

	"github.com/ashureev/whatsapp-agent/internal/domain"
)

// SampleUsers returns the demo directory rows used for local testing.
func SampleUsers() []*domain.User {
	return []*domain.User{
		{ClientID: "acme_corp", ClientCode: "ACME-1001", Name: "Alice Johnson", Phone: "+15551234567", Email: "alice@example.com", IsActive: true},
		{ClientID: "acme_corp", ClientCode: "ACME-1002", Name: "Bob Smith", Phone: "+15559876543", Email: "bob@example.com", IsActive: true},
		{ClientID: "globex_inc", ClientCode: "GLX-2001", Name: "Carol Davis", Phone: "+442071234567", Email: "carol@example.com", IsActive: true},
		{ClientID: "globex_inc", ClientCode: "GLX-2002", Name: "Dan Wilson", Phone: "+919876543210", Email: "dan@example.com", IsActive: true},
	}
}

// SeedIfEmpty inserts the sample users when the directory has no rows.
// It returns the number of users inserted.
func SeedIfEmpty(ctx context.Context, repo Repository) (int, error) {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("check directory size: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	users := SampleUsers()
	for _, u := range users {
		if err := repo.InsertUser(ctx, u); err != nil {
			return 0, fmt.Errorf("seed user %s: %w", u.ClientCode, err)
		}
	}
	return len(users), nil
}
