package service

import (
	"context"
	"fmt"
	"strings"

	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"
)

type AddressInput struct {
	RecipientName string
	Phone         string
	Line1         string
	Line2         string
	City          string
	State         string
	Postcode      string
	Country       string
	IsDefault     bool
}

func (in AddressInput) toModel(userID string) *model.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "MY"
	}
	return &model.Address{
		UserID:        userID,
		RecipientName: strings.TrimSpace(in.RecipientName),
		Phone:         strings.TrimSpace(in.Phone),
		Line1:         strings.TrimSpace(in.Line1),
		Line2:         strings.TrimSpace(in.Line2),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		Postcode:      strings.TrimSpace(in.Postcode),
		Country:       country,
		IsDefault:     in.IsDefault,
	}
}

func snapshotOf(a *model.Address) *model.ShippingAddress {
	return &model.ShippingAddress{
		UserID:        a.UserID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		Postcode:      a.Postcode,
		Country:       a.Country,
	}
}

type AddressService interface {
	List(ctx context.Context, userID string) ([]*model.Address, error)
	Create(ctx context.Context, userID string, in AddressInput) (*model.Address, error)
	Delete(ctx context.Context, userID string, addressID uint) error
}

type addressServiceImpl struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressServiceImpl{
		addressRepo: addressRepo,
	}
}

func (s *addressServiceImpl) List(ctx context.Context, userID string) ([]*model.Address, error) {
	addresses, err := s.addressRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressServiceImpl) Create(ctx context.Context, userID string, in AddressInput) (*model.Address, error) {
	address := in.toModel(userID)
	if err := s.addressRepo.Create(ctx, nil, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return address, nil
}

func (s *addressServiceImpl) Delete(ctx context.Context, userID string, addressID uint) error {
	if err := s.addressRepo.Delete(ctx, addressID, userID); err != nil {
		return lookupErr(err, "address")
	}
	return nil
}
