package handler

import (
	"strings"

	"irdesk/internal/verification/models"
	dErrors "irdesk/pkg/domain-errors"
)

const (
	maxNameLength    = 200
	maxEmailLength   = 254
	maxPhoneLength   = 32
	maxHolderIDLen   = 64
	maxCompanyLength = 200
	maxCountryLength = 64
)

// RegisterRequest is the body of POST /applicants.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate implements httputil.Validatable.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.FullName) > maxNameLength || len(r.Email) > maxEmailLength || len(r.Phone) > maxPhoneLength {
		return dErrors.New(dErrors.CodeValidation, "field exceeds maximum length")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

// IntentRequest is the body of POST /applicants/{id}/verification/intent.
type IntentRequest struct {
	Wants *bool `json:"wants"`
}

func (r *IntentRequest) Validate() error {
	if r == nil || r.Wants == nil {
		return dErrors.New(dErrors.CodeValidation, "wants is required")
	}
	return nil
}

// ClaimRequest is the body of POST /applicants/{id}/verification/claim.
type ClaimRequest struct {
	ShareholdingsID string `json:"shareholdings_id"`
	CompanyName     string `json:"company_name"`
	Country         string `json:"country"`
}

func (r *ClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ShareholdingsID) > maxHolderIDLen || len(r.CompanyName) > maxCompanyLength || len(r.Country) > maxCountryLength {
		return dErrors.New(dErrors.CodeValidation, "field exceeds maximum length")
	}
	r.ShareholdingsID = strings.TrimSpace(r.ShareholdingsID)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.Country = strings.TrimSpace(r.Country)
	if r.ShareholdingsID == "" {
		return dErrors.New(dErrors.CodeValidation, "shareholdings_id is required")
	}
	if r.CompanyName == "" {
		return dErrors.New(dErrors.CodeValidation, "company_name is required")
	}
	return nil
}

// VerifyCodeRequest is the body of POST /applicants/{id}/verification/code/verify.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

func (r *VerifyCodeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if len(r.Code) > 16 {
		return dErrors.New(dErrors.CodeValidation, "code is too long")
	}
	return nil
}

// ReviewRequest is the body of POST /admin/applicants/{id}/verification/review.
type ReviewRequest struct {
	Match *bool `json:"match"`
}

func (r *ReviewRequest) Validate() error {
	if r == nil || r.Match == nil {
		return dErrors.New(dErrors.CodeValidation, "match is required")
	}
	return nil
}

// SendCodeRequest is the body of POST /admin/applicants/{id}/verification/code.
// An empty channel sends by email.
type SendCodeRequest struct {
	Channel string `json:"channel"`
	Manual  bool   `json:"manual"`

	parsedChannel models.Channel
}

func (r *SendCodeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Channel) == "" {
		r.parsedChannel = ""
		return nil
	}
	channel, err := models.ParseChannel(r.Channel)
	if err != nil {
		return err
	}
	r.parsedChannel = channel
	return nil
}

// ParsedChannel returns the validated channel.
func (r *SendCodeRequest) ParsedChannel() models.Channel {
	return r.parsedChannel
}
