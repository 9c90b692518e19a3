package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ClientCollection stores API clients allowed to request tokens.
type ClientCollection struct {
	Collection Collection
}

// FindClient finds an API client by its ID.
func (c *ClientCollection) FindClient(ctx context.Context, id string) (*models.APIClient, error) {
	var clients []models.APIClient
	if err := findAll(ctx, c.Collection, bson.M{"_id": id}, &clients, options.Find().SetLimit(1)); err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("client %q: %w", id, models.ErrNotFound)
	}
	return &clients[0], nil
}

// SaveClient inserts the client or replaces its secret and role.
func (c *ClientCollection) SaveClient(ctx context.Context, client models.APIClient) error {
	if client.ID == "" {
		return fmt.Errorf("client id is required")
	}
	if !models.IsValidRole(client.Role) {
		return fmt.Errorf("invalid role %q", client.Role)
	}
	_, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": client.ID},
		bson.M{"$set": bson.M{
			"secret_hash": client.SecretHash,
			"role":        client.Role,
			"disabled":    client.Disabled,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
