package dto

import (
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=500"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *LoginRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

type RegisterRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email,max=500"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required,oneof=ingeniero inspector"`
	Region    string `json:"region" validate:"required"`
	Transport string `json:"transport" validate:"required,oneof=moto carro"`
}

func (r *RegisterRequest) Validate(v *validator.Validator) {
	v.Struct(r)
	if r.Region != "" {
		v.Check(types.Region(r.Region).Valid(), "region", "must be one of Risaralda, Caldas, Quindío")
	}
}

func (r *RegisterRequest) ToModel() models.Registration {
	return models.Registration{
		Name:      r.Name,
		Email:     r.Email,
		Password:  r.Password,
		Role:      types.UserRole(r.Role),
		Transport: types.Transport(r.Transport),
		Region:    types.Region(r.Region),
	}
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type PushTokenRequest struct {
	Token string `json:"token" validate:"required,startswith=ExponentPushToken,max=255"`
}

func (r *PushTokenRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}
