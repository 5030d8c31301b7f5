package supabase

import (
	"fmt"

	"pdf-revision-engine/internal/domain"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// Client wraps the Supabase client used for revision archiving.
type Client struct {
	client *supabase.Client
	config domain.Config
	logger domain.Logger
}

func NewClient(config domain.Config, logger domain.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
	}
}

// Enabled reports whether Supabase credentials are configured.
func (c *Client) Enabled() bool {
	return c.config.GetSupabaseURL() != "" && c.config.GetSupabaseKey() != ""
}

// Initialize establishes a connection to Supabase
func (c *Client) Initialize() error {
	supabaseURL := c.config.GetSupabaseURL()
	supabaseKey := c.config.GetSupabaseKey()

	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	c.client = client
	c.logger.Info("Supabase client initialized successfully", "url", supabaseURL)
	return nil
}

// Storage returns the storage API client, or nil before Initialize.
func (c *Client) Storage() *storage_go.Client {
	if c.client == nil {
		return nil
	}
	return c.client.Storage
}

// Tables returns the client used for PostgREST table access, or nil before
// Initialize.
func (c *Client) Tables() *supabase.Client {
	return c.client
}
