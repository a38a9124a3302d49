package equipment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

type EquipmentServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	ctx     context.Context
	owner   id.OwnerID
	other   id.OwnerID
}

func TestEquipmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EquipmentServiceSuite))
}

func (s *EquipmentServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store)
	s.ctx = context.Background()
	s.owner = id.OwnerID("owner-a")
	s.other = id.OwnerID("owner-b")
}

func (s *EquipmentServiceSuite) TestOwnership() {
	s.Run("created entries are owner-scoped", func() {
		load, err := s.service.CreateLoad(s.ctx, s.owner, Load{
			Name:            "match load",
			Cartridge:       "308 Win",
			BulletName:      "175gr SMK",
			BulletMassGrams: 11.34,
		})
		s.Require().NoError(err)
		s.Equal(ScopeOwned, load.Ownership.Scope)
		s.Equal(s.owner, load.Ownership.Owner)

		_, err = s.service.GetLoad(s.ctx, s.other, load.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("global entries are visible to every owner", func() {
		global := &Firearm{
			ID:        id.NewFirearmID(),
			Ownership: Global(),
			Name:      "club rifle",
			Caliber:   "6.5 Creedmoor",
		}
		s.Require().NoError(s.store.CreateFirearm(s.ctx, global))

		got, err := s.service.GetFirearm(s.ctx, s.other, global.ID)
		s.Require().NoError(err)
		s.Equal("club rifle", got.Name)
	})

	s.Run("lists include global and own entries only", func() {
		_, err := s.service.CreateFirearm(s.ctx, s.other, Firearm{Name: "their rifle", Caliber: "223 Rem"})
		s.Require().NoError(err)

		mine, err := s.service.ListFirearms(s.ctx, s.owner)
		s.Require().NoError(err)
		for _, f := range mine {
			s.True(f.Ownership.VisibleTo(s.owner))
		}
	})
}

func (s *EquipmentServiceSuite) TestOwnershipValidate() {
	s.Run("global with owner rejected", func() {
		err := Ownership{Scope: ScopeGlobal, Owner: s.owner}.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("owned without owner rejected", func() {
		err := Ownership{Scope: ScopeOwned}.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown scope rejected", func() {
		err := Ownership{Scope: Scope("shared")}.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *EquipmentServiceSuite) TestValidation() {
	s.Run("load requires positive bullet mass", func() {
		_, err := s.service.CreateLoad(s.ctx, s.owner, Load{Name: "bad", BulletMassGrams: 0})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("firearm requires caliber", func() {
		_, err := s.service.CreateFirearm(s.ctx, s.owner, Firearm{Name: "no caliber"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("load referencing unknown projectile rejected", func() {
		missing := id.NewProjectileID()
		_, err := s.service.CreateLoad(s.ctx, s.owner, Load{
			Name:            "orphan",
			BulletMassGrams: 10,
			ProjectileID:    &missing,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
