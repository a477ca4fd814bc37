package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const abstractEmailEndpoint = "https://emailvalidation.abstractapi.com/v1/"

// ValidationService checks email deliverability through AbstractAPI.
type ValidationService struct {
	emailAPIKey string
	endpoint    string
	client      *http.Client
}

// Email validation response struct matching the actual API response
type EmailValidationResponse struct {
	Email          string                `json:"email"`
	Autocorrect    string                `json:"autocorrect"`
	Deliverability string                `json:"deliverability"`
	QualityScore   string                `json:"quality_score"`
	IsValidFormat  EmailValidationDetail `json:"is_valid_format"`
	IsFreeEmail    EmailValidationDetail `json:"is_free_email"`
	IsDisposable   EmailValidationDetail `json:"is_disposable_email"`
	IsRoleEmail    EmailValidationDetail `json:"is_role_email"`
	IsCatchall     EmailValidationDetail `json:"is_catchall_email"`
	IsMxFound      EmailValidationDetail `json:"is_mx_found"`
	IsSmtpValid    EmailValidationDetail `json:"is_smtp_valid"`
}

type EmailValidationDetail struct {
	Value bool   `json:"value"`
	Text  string `json:"text"`
}

func NewValidationService(emailAPIKey string) *ValidationService {
	return &ValidationService{
		emailAPIKey: emailAPIKey,
		endpoint:    abstractEmailEndpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *ValidationService) ValidateEmail(email string) (*EmailValidationResponse, error) {
	query := url.Values{}
	query.Set("api_key", v.emailAPIKey)
	query.Set("email", email)

	resp, err := v.client.Get(v.endpoint + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to make email validation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("email validation API returned status: %d", resp.StatusCode)
	}

	var result EmailValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse email validation response: %w", err)
	}

	return &result, nil
}

func (v *ValidationService) IsEmailValid(email string) (bool, error) {
	result, err := v.ValidateEmail(email)
	if err != nil {
		return false, err
	}

	isValid := result.IsValidFormat.Value && // Must have valid format
		!result.IsDisposable.Value && // No disposable emails
		result.IsMxFound.Value && // MX record must exist
		result.Deliverability == "DELIVERABLE"

	return isValid, nil
}
