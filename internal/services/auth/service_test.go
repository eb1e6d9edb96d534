package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/dependencies/mocks"
	"github.com/mcoot/fleetgame-go/internal/storage/memory"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, mocks.NewSequentialIDs("id"), testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateGuestPlayer() {
	session, err := s.service.CreateGuestPlayer(s.ctx, "  Alice ")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("p_id-1", string(session.PlayerID))
	s.Equal("Alice", session.Player.DisplayName)
	s.True(session.Player.IsGuest)

	player, err := s.storage.GetPlayer(s.ctx, session.PlayerID)
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestCreateGuestPlayerRejectsBlankName() {
	_, err := s.service.CreateGuestPlayer(s.ctx, "   ")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *ServiceSuite) TestRegisterAndLogin() {
	registered, err := s.service.RegisterPlayer(s.ctx, "Alice", "hunter22", "Alice A")
	s.Require().NoError(err)
	s.False(registered.Player.IsGuest)

	session, err := s.service.Login(s.ctx, "alice", "hunter22")
	s.Require().NoError(err)
	s.Equal(registered.PlayerID, session.PlayerID)
	s.NotEqual(registered.Token, session.Token)
	s.Equal("Alice A", session.Player.DisplayName)
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.RegisterPlayer(s.ctx, "alice", "hunter22", "")
	s.Require().NoError(err)

	_, err = s.service.RegisterPlayer(s.ctx, "ALICE", "other-pass", "")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterShortPassword() {
	_, err := s.service.RegisterPlayer(s.ctx, "alice", "abc", "")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.RegisterPlayer(s.ctx, "alice", "hunter22", "")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice", "wrong-pass")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "nobody", "hunter22")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestSessionExpiry() {
	session, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	_, err = s.service.ValidateSession(session.Token)
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	_, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	s.clock.Advance(12 * time.Hour)
	fresh, err := s.service.CreateGuestPlayer(s.ctx, "Bob")
	s.Require().NoError(err)

	s.clock.Advance(13 * time.Hour)
	s.Equal(1, s.service.CleanExpiredSessions())

	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)
	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}
