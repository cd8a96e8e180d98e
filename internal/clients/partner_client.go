package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// PartnerClient handles communication with the partner-service
type PartnerClient struct {
	baseURL    string
	httpClient *http.Client
}

// Partner represents a brand partner profile from partner-service
type Partner struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	WebsiteURL *string `json:"websiteUrl,omitempty"`
}

// PartnerResponse from partner-service
type PartnerResponse struct {
	Success bool     `json:"success"`
	Data    *Partner `json:"data,omitempty"`
	Message *string  `json:"message,omitempty"`
}

// NewPartnerClient creates a new partner client
func NewPartnerClient() *PartnerClient {
	baseURL := os.Getenv("PARTNER_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://partner-service:8080"
	}

	return &PartnerClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetPartnerByID retrieves a partner profile by its ID
func (c *PartnerClient) GetPartnerByID(partnerID string) (*Partner, error) {
	url := fmt.Sprintf("%s/api/v1/partners/%s", c.baseURL, partnerID)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partner lookup failed: %d", resp.StatusCode)
	}

	var result PartnerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Data, nil
}

// GetWebsiteURL returns the partner's storefront URL, or an empty string when
// the partner has no profile or no URL on file. Only transport and server
// errors are returned.
func (c *PartnerClient) GetWebsiteURL(partnerID string) (string, error) {
	partner, err := c.GetPartnerByID(partnerID)
	if err != nil {
		return "", err
	}
	if partner == nil || partner.WebsiteURL == nil {
		return "", nil
	}
	return strings.TrimSpace(*partner.WebsiteURL), nil
}
