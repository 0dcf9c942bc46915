package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	nextID  int64
	byID    map[int64]*Client
	byDoc   map[string]*Client
	updates map[int64]map[string]interface{}
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		nextID:  1,
		byID:    map[int64]*Client{},
		byDoc:   map[string]*Client{},
		updates: map[int64]map[string]interface{}{},
	}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetByDocumentID(_ context.Context, documentID string) (*Client, error) {
	c, ok := m.byDoc[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, _ ListClientsRequest) ([]Client, int, error) {
	out := make([]Client, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, client Client) (int64, error) {
	client.ID = m.nextID
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	m.nextID++
	m.byID[client.ID] = &client
	m.byDoc[client.DocumentID] = &client
	return client.ID, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	c, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	m.updates[id] = updates
	if v, ok := updates["name"].(string); ok {
		c.Name = v
	}
	if v, ok := updates["is_active"].(bool); ok {
		c.IsActive = v
	}
	return nil
}

func TestCreateClientRegistersActive(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateClientRequest{
		Name:       "Constructora Andina",
		DocumentID: "900123456-1",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, "900123456-1", created.DocumentID)
}

func TestCreateClientRejectsDuplicateDocument(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateClientRequest{Name: "A", DocumentID: "900123456-1"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateClientRequest{Name: "B", DocumentID: "900123456-1"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateClientAppliesOnlyProvidedFields(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateClientRequest{Name: "A", DocumentID: "900123456-1"})
	require.NoError(t, err)

	name := "Constructora Andina S.A.S."
	updated, err := svc.Update(context.Background(), created.ID, UpdateClientRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	fields := repo.updates[created.ID]
	require.Len(t, fields, 1)
	assert.Contains(t, fields, "name")
}

func TestUpdateClientWithoutChangesReturnsCurrent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateClientRequest{Name: "A", DocumentID: "900123456-1"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateClientRequest{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Empty(t, repo.updates)
}

func TestDeactivateClient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateClientRequest{Name: "A", DocumentID: "900123456-1"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateClientRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
