package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/logger"
	"github.com/shaharia-lab/sesrelay/internal/service"
	"github.com/shaharia-lab/sesrelay/internal/storage"
	"github.com/shaharia-lab/sesrelay/internal/storage/mocks"
)

func newContactService(t *testing.T) (service.ContactService, *mocks.MockContactStore) {
	t.Helper()
	store := &mocks.MockContactStore{}
	t.Cleanup(func() { store.AssertExpectations(t) })
	return service.NewContactService(store, logger.Discard()), store
}

func TestContactService_Create(t *testing.T) {
	svc, store := newContactService(t)
	store.On("GetContactByEmail", mock.Anything, "jane@example.com").Return(nil, nil)
	store.On("CreateContact", mock.Anything, mock.AnythingOfType("*storage.Contact")).
		Run(func(args mock.Arguments) { args.Get(1).(*storage.Contact).ID = 3 }).
		Return(nil)

	c, err := svc.Create(context.Background(), &storage.Contact{Email: "Jane Doe <jane@example.com>", FirstName: "Jane"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, "jane@example.com", c.Email)
}

func TestContactService_CreateValidation(t *testing.T) {
	svc, _ := newContactService(t)

	for _, c := range []*storage.Contact{nil, {}, {Email: "not an address"}} {
		_, err := svc.Create(context.Background(), c)
		var ve *service.ValidationError
		assert.True(t, errors.As(err, &ve), "contact %+v: %v", c, err)
	}
}

func TestContactService_CreateDuplicate(t *testing.T) {
	svc, store := newContactService(t)
	store.On("GetContactByEmail", mock.Anything, "jane@example.com").
		Return(&storage.Contact{ID: 1, Email: "jane@example.com"}, nil)

	_, err := svc.Create(context.Background(), &storage.Contact{Email: "jane@example.com"})

	var ce *service.ConflictError
	assert.True(t, errors.As(err, &ce))
}

func TestContactService_GetNotFound(t *testing.T) {
	svc, store := newContactService(t)
	store.On("GetContact", mock.Anything, int64(9)).Return(nil, nil)

	_, err := svc.Get(context.Background(), 9)

	var nf *service.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "9", nf.ID)
}

func TestContactService_Delete(t *testing.T) {
	svc, store := newContactService(t)
	store.On("GetContact", mock.Anything, int64(4)).Return(&storage.Contact{ID: 4}, nil)
	store.On("DeleteContact", mock.Anything, int64(4)).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 4))
}

func TestContactService_DeleteMissing(t *testing.T) {
	svc, store := newContactService(t)
	store.On("GetContact", mock.Anything, int64(4)).Return(nil, nil)

	err := svc.Delete(context.Background(), 4)

	var nf *service.NotFoundError
	assert.True(t, errors.As(err, &nf))
	store.AssertNotCalled(t, "DeleteContact", mock.Anything, mock.Anything)
}

func TestContactService_List(t *testing.T) {
	svc, store := newContactService(t)
	store.On("ListContacts", mock.Anything, 10).Return([]storage.Contact{{ID: 1}, {ID: 2}}, nil)

	list, err := svc.List(context.Background(), 10)

	require.NoError(t, err)
	assert.Len(t, list, 2)
}
