package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskhub-api/internal/database"
	"github.com/yukikurage/taskhub-api/internal/dto"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// serviceSuite is shared by the service test suites. Every test gets a
// fresh in-memory database.
type serviceSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	store  repository.Store
	hasher PasswordHasher
	tokens *JWTService
	svcs   *Services
	clock  time.Time
}

func (s *serviceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(database.Migrate(db, zap.NewNop()))

	s.ctx = context.Background()
	s.db = db
	s.store = repository.NewStore(db)
	s.hasher = NewBcryptHasher(bcrypt.MinCost)

	s.tokens, err = NewJWTService("test-secret", "taskhub-test", time.Hour, 1)
	s.Require().NoError(err)

	s.svcs = New(s.store, s.hasher, s.tokens, Options{
		Roles: RolePolicy{AllowAdminDemotion: true, AllowSelfDemotion: true},
	})

	s.clock = time.Now().UTC().Truncate(time.Second)
	s.svcs.Tasks.now = func() time.Time { return s.clock }
}

func (s *serviceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *serviceSuite) createUser(username string, role models.UserRole) *Actor {
	user, err := NewUserDirectory(s.store.Users(), s.hasher).Create(s.ctx, NewUser{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
		Role:     role,
	}, false)
	s.Require().NoError(err)
	return ActorFromUser(user)
}

func (s *serviceSuite) createTask(actor *Actor, title string, opts ...func(*CreateTaskInput)) *dto.TaskDTO {
	input := CreateTaskInput{Title: title}
	for _, opt := range opts {
		opt(&input)
	}
	task, err := s.svcs.Tasks.CreateTask(s.ctx, actor, input)
	s.Require().NoError(err)
	return task
}

func (s *serviceSuite) requireKind(err error, kind Kind) {
	s.Require().Error(err)
	s.Equal(kind, KindOf(err), "unexpected kind for %v", err)
}

func taskIDs(tasks []dto.TaskDTO) []uint64 {
	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func ptr[T any](v T) *T {
	return &v
}
