package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/core/services"
	"github.com/ledgerkeep/ledgerkeep/internal/dto"
)

// --- Mock EntityRepository ---
type MockEntityRepository struct {
	mock.Mock
}

// Ensure MockEntityRepository implements portsrepo.EntityRepositoryFacade
var _ portsrepo.EntityRepositoryFacade = (*MockEntityRepository)(nil)

func (m *MockEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockEntityRepository) GetEntityClosingDate(ctx context.Context, entityID string) (*time.Time, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockEntityRepository) ListEntitiesByUserID(ctx context.Context, userID string) ([]domain.Entity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}

func (m *MockEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) UpdateEntityClosingDate(ctx context.Context, entity domain.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) AddUserToEntity(ctx context.Context, membership domain.UserEntity) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockEntityRepository) FindUserEntityRole(ctx context.Context, userID, entityID string) (*domain.UserEntity, error) {
	args := m.Called(ctx, userID, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserEntity), args.Error(1)
}

func (m *MockEntityRepository) ListUsersByEntityID(ctx context.Context, entityID string) ([]domain.UserEntity, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserEntity), args.Error(1)
}

// --- Test Suite Setup ---
type EntityServiceTestSuite struct {
	suite.Suite
	mockEntityRepo *MockEntityRepository
	service        portssvc.EntitySvcFacade
	entityID       string
	adminID        string
	managerID      string
	outsiderID     string
}

func (suite *EntityServiceTestSuite) SetupTest() {
	suite.mockEntityRepo = new(MockEntityRepository)
	suite.service = services.NewEntityService(suite.mockEntityRepo)

	suite.entityID = uuid.NewString()
	suite.adminID = uuid.NewString()
	suite.managerID = uuid.NewString()
	suite.outsiderID = uuid.NewString()
}

func (suite *EntityServiceTestSuite) expectRole(userID string, role domain.UserEntityRole) {
	membership := &domain.UserEntity{
		UserID:   userID,
		EntityID: suite.entityID,
		Role:     role,
	}
	suite.mockEntityRepo.On("FindUserEntityRole", mock.Anything, userID, suite.entityID).Return(membership, nil).Once()
}

// --- Test Cases ---

func (suite *EntityServiceTestSuite) TestCreateEntity_Success() {
	ctx := context.Background()
	req := dto.CreateEntityRequest{Name: "Acme Corp", Description: "books for acme"}

	suite.mockEntityRepo.On("SaveEntity", ctx, mock.AnythingOfType("domain.Entity")).Return(nil).Once()
	suite.mockEntityRepo.On("AddUserToEntity", ctx, mock.MatchedBy(func(m domain.UserEntity) bool {
		return m.UserID == suite.adminID && m.Role == domain.RoleAdmin
	})).Return(nil).Once()

	entity, err := suite.service.CreateEntity(ctx, req, suite.adminID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entity)
	suite.NotEmpty(entity.EntityID)
	suite.Equal("Acme Corp", entity.Name)
	suite.True(strings.HasPrefix(entity.Slug, "acme-corp-"))
	suite.Nil(entity.LastClosingDate)
	suite.EqualValues(1, entity.Version)
	suite.Equal(suite.adminID, entity.CreatedBy)

	suite.mockEntityRepo.AssertExpectations(suite.T())
}

func (suite *EntityServiceTestSuite) TestCreateEntity_MissingName() {
	ctx := context.Background()

	_, err := suite.service.CreateEntity(ctx, dto.CreateEntityRequest{}, suite.adminID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "SaveEntity", mock.Anything, mock.Anything)
}

func (suite *EntityServiceTestSuite) TestAuthorizeUserAction_RoleHierarchy() {
	ctx := context.Background()

	testCases := []struct {
		name         string
		userRole     domain.UserEntityRole
		requiredRole domain.UserEntityRole
		wantErr      bool
	}{
		{"admin acts as manager", domain.RoleAdmin, domain.RoleManager, false},
		{"manager acts as manager", domain.RoleManager, domain.RoleManager, false},
		{"admin acts as admin", domain.RoleAdmin, domain.RoleAdmin, false},
		{"manager cannot act as admin", domain.RoleManager, domain.RoleAdmin, true},
		{"removed member cannot act at all", domain.RoleRemoved, domain.RoleManager, true},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			userID := uuid.NewString()
			membership := &domain.UserEntity{UserID: userID, EntityID: suite.entityID, Role: tc.userRole}
			suite.mockEntityRepo.On("FindUserEntityRole", mock.Anything, userID, suite.entityID).Return(membership, nil).Once()

			authorizer := suite.service.(portssvc.EntityAuthorizerSvc)
			err := authorizer.AuthorizeUserAction(ctx, userID, suite.entityID, tc.requiredRole)

			if tc.wantErr {
				suite.ErrorIs(err, apperrors.ErrForbidden)
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *EntityServiceTestSuite) TestAuthorizeUserAction_NonMember() {
	ctx := context.Background()
	suite.mockEntityRepo.On("FindUserEntityRole", mock.Anything, suite.outsiderID, suite.entityID).
		Return(nil, apperrors.ErrNotFound).Once()

	authorizer := suite.service.(portssvc.EntityAuthorizerSvc)
	err := authorizer.AuthorizeUserAction(ctx, suite.outsiderID, suite.entityID, domain.RoleManager)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *EntityServiceTestSuite) TestUpdateClosingDate_AdminSets() {
	ctx := context.Background()
	closing := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	entity := &domain.Entity{
		EntityID: suite.entityID,
		Name:     "Acme Corp",
		Version:  5,
	}

	suite.expectRole(suite.adminID, domain.RoleAdmin)
	suite.mockEntityRepo.On("FindEntityByID", ctx, suite.entityID).Return(entity, nil).Once()
	suite.mockEntityRepo.On("UpdateEntityClosingDate", ctx, mock.MatchedBy(func(e domain.Entity) bool {
		return e.LastClosingDate != nil && e.LastClosingDate.Equal(closing) && e.Version == 5
	})).Return(nil).Once()

	updated, err := suite.service.UpdateEntityClosingDate(ctx, suite.entityID, suite.adminID, &closing)

	suite.Require().NoError(err)
	suite.Require().NotNil(updated.LastClosingDate)
	suite.True(updated.LastClosingDate.Equal(closing))
	suite.EqualValues(6, updated.Version)

	// The closing boundary is inclusive
	suite.True(updated.IsClosedFor(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)))
	suite.True(updated.IsClosedFor(closing))
	suite.False(updated.IsClosedFor(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)))

	suite.mockEntityRepo.AssertExpectations(suite.T())
}

func (suite *EntityServiceTestSuite) TestUpdateClosingDate_ManagerForbidden() {
	ctx := context.Background()
	closing := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	suite.expectRole(suite.managerID, domain.RoleManager)

	_, err := suite.service.UpdateEntityClosingDate(ctx, suite.entityID, suite.managerID, &closing)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "UpdateEntityClosingDate", mock.Anything, mock.Anything)
}

func (suite *EntityServiceTestSuite) TestUpdateClosingDate_ClearReopens() {
	ctx := context.Background()
	previous := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	entity := &domain.Entity{
		EntityID:        suite.entityID,
		LastClosingDate: &previous,
		Version:         2,
	}

	suite.expectRole(suite.adminID, domain.RoleAdmin)
	suite.mockEntityRepo.On("FindEntityByID", ctx, suite.entityID).Return(entity, nil).Once()
	suite.mockEntityRepo.On("UpdateEntityClosingDate", ctx, mock.MatchedBy(func(e domain.Entity) bool {
		return e.LastClosingDate == nil
	})).Return(nil).Once()

	updated, err := suite.service.UpdateEntityClosingDate(ctx, suite.entityID, suite.adminID, nil)

	suite.Require().NoError(err)
	suite.Nil(updated.LastClosingDate)
	suite.False(updated.IsClosedFor(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	suite.mockEntityRepo.AssertExpectations(suite.T())
}

func (suite *EntityServiceTestSuite) TestAddUserToEntity_SelfAssignmentSkipsRoleCheck() {
	ctx := context.Background()

	suite.mockEntityRepo.On("AddUserToEntity", ctx, mock.MatchedBy(func(m domain.UserEntity) bool {
		return m.UserID == suite.adminID && m.Role == domain.RoleAdmin
	})).Return(nil).Once()

	err := suite.service.AddUserToEntity(ctx, suite.adminID, suite.adminID, suite.entityID, domain.RoleAdmin)

	suite.Require().NoError(err)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "FindUserEntityRole", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntityServiceTestSuite) TestAddUserToEntity_NonAdminForbidden() {
	ctx := context.Background()
	targetID := uuid.NewString()

	suite.expectRole(suite.managerID, domain.RoleManager)

	err := suite.service.AddUserToEntity(ctx, suite.managerID, targetID, suite.entityID, domain.RoleManager)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "AddUserToEntity", mock.Anything, mock.Anything)
}

func (suite *EntityServiceTestSuite) TestRemoveUserFromEntity_FlipsRoleToRemoved() {
	ctx := context.Background()
	targetID := uuid.NewString()

	suite.expectRole(suite.adminID, domain.RoleAdmin)
	suite.mockEntityRepo.On("AddUserToEntity", ctx, mock.MatchedBy(func(m domain.UserEntity) bool {
		return m.UserID == targetID && m.Role == domain.RoleRemoved
	})).Return(nil).Once()

	err := suite.service.RemoveUserFromEntity(ctx, suite.adminID, targetID, suite.entityID)

	suite.Require().NoError(err)
	suite.mockEntityRepo.AssertExpectations(suite.T())
}

func (suite *EntityServiceTestSuite) TestUpdateUserEntityRole_RejectsRemoved() {
	ctx := context.Background()
	targetID := uuid.NewString()

	err := suite.service.UpdateUserEntityRole(ctx, suite.adminID, targetID, suite.entityID, domain.RoleRemoved)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "AddUserToEntity", mock.Anything, mock.Anything)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "FindUserEntityRole", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntityServiceTestSuite) TestListEntityUsers_RequiresMembership() {
	ctx := context.Background()

	suite.mockEntityRepo.On("FindUserEntityRole", mock.Anything, suite.outsiderID, suite.entityID).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListEntityUsers(ctx, suite.entityID, suite.outsiderID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEntityRepo.AssertNotCalled(suite.T(), "ListUsersByEntityID", mock.Anything, mock.Anything)
}

func TestEntityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntityServiceTestSuite))
}
