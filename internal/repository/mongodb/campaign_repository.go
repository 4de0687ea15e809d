package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lojasocial/backend/internal/domain/models"
)

// CampaignRepository defines the persistence operations for campaigns.
type CampaignRepository interface {
	InsertCampaign(ctx context.Context, campaign models.Campaign) error
	GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, activeOnly bool) ([]models.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign models.Campaign) error
}

// MongoCampaignRepository implements CampaignRepository on top of the shared Store.
type MongoCampaignRepository struct {
	store *Store
}

// NewCampaignRepository builds a campaign repository.
func NewCampaignRepository(store *Store) *MongoCampaignRepository {
	return &MongoCampaignRepository{store: store}
}

// InsertCampaign stores a new campaign.
func (r *MongoCampaignRepository) InsertCampaign(ctx context.Context, campaign models.Campaign) error {
	if _, err := r.store.collection(campaignsColl).InsertOne(ctx, campaign); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetCampaignByID returns a single campaign, or nil when absent.
func (r *MongoCampaignRepository) GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.store.collection(campaignsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find campaign %s: %w", id, err)
	}
	return &campaign, nil
}

// ListCampaigns returns campaigns, newest first, optionally active only.
func (r *MongoCampaignRepository) ListCampaigns(ctx context.Context, activeOnly bool) ([]models.Campaign, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	cursor, err := r.store.collection(campaignsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	var campaigns []models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, fmt.Errorf("decode campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign replaces the stored campaign document.
func (r *MongoCampaignRepository) UpdateCampaign(ctx context.Context, campaign models.Campaign) error {
	res, err := r.store.collection(campaignsColl).ReplaceOne(ctx, bson.M{"_id": campaign.ID}, campaign)
	if err != nil {
		return fmt.Errorf("update campaign %s: %w", campaign.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update campaign %s: no document matched", campaign.ID)
	}
	return nil
}
