package beneficiary

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasocial/backend/internal/domain/models"
)

type memRepo struct {
	beneficiaries map[string]*models.Beneficiary
}

func newMemRepo() *memRepo {
	return &memRepo{beneficiaries: make(map[string]*models.Beneficiary)}
}

func (m *memRepo) InsertBeneficiary(_ context.Context, beneficiary models.Beneficiary) error {
	copied := beneficiary
	m.beneficiaries[beneficiary.ID] = &copied
	return nil
}

func (m *memRepo) GetBeneficiaryByID(_ context.Context, id string) (*models.Beneficiary, error) {
	beneficiary, ok := m.beneficiaries[id]
	if !ok {
		return nil, nil
	}
	copied := *beneficiary
	return &copied, nil
}

func (m *memRepo) ListBeneficiaries(_ context.Context, status models.BeneficiaryStatus) ([]models.Beneficiary, error) {
	var out []models.Beneficiary
	for _, beneficiary := range m.beneficiaries {
		if status == "" || beneficiary.Status == status {
			out = append(out, *beneficiary)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateBeneficiaryStatus(_ context.Context, id string, status models.BeneficiaryStatus) error {
	beneficiary, ok := m.beneficiaries[id]
	if !ok {
		return fmt.Errorf("unknown beneficiary %s", id)
	}
	beneficiary.Status = status
	return nil
}

func TestRegisterStartsPending(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), Registration{Name: "Maria Santos", Document: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.BeneficiaryPending, created.Status)
	assert.Equal(t, 1, created.HouseholdSize)
	assert.NotEmpty(t, created.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	_, err := svc.Register(context.Background(), Registration{Name: "  ", Document: "123"})
	require.ErrorIs(t, err, ErrInvalidRegistration)

	_, err = svc.Register(context.Background(), Registration{Name: "Maria", Document: ""})
	require.ErrorIs(t, err, ErrInvalidRegistration)
}

func TestApproveOnlyOnce(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), Registration{Name: "Maria", Document: "123"})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), created.ID))
	assert.Equal(t, models.BeneficiaryApproved, repo.beneficiaries[created.ID].Status)

	err = svc.Approve(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRejectPending(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), Registration{Name: "Rui", Document: "456"})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), created.ID))
	assert.Equal(t, models.BeneficiaryRejected, repo.beneficiaries[created.ID].Status)
}

func TestDeactivateRequiresApproved(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), Registration{Name: "Ana", Document: "789"})
	require.NoError(t, err)

	err = svc.Deactivate(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrAlreadyDecided)

	require.NoError(t, svc.Approve(context.Background(), created.ID))
	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	assert.Equal(t, models.BeneficiaryInactive, repo.beneficiaries[created.ID].Status)
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}
