package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	if err := c.validateApp(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if c.Attachment.MaxBytes <= 0 {
		return fmt.Errorf("ATTACHMENT_MAX_BYTES must be positive, got %d", c.Attachment.MaxBytes)
	}
	return nil
}

func (c *Config) validateApp() error {
	port, err := strconv.Atoi(c.App.Port)
	if err != nil {
		return fmt.Errorf("APP_PORT must be a valid integer: %w", err)
	}
	if port < 1 || port > 65535 {
		return errors.New("APP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" && strings.TrimSpace(c.Auth.PublicKeyPEM) == "" {
		return errors.New("AUTH_JWT_SECRET or AUTH_PUBLIC_KEY_PEM is required")
	}
	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	if !s.Configured() {
		return nil
	}
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "STORAGE_ENDPOINT")
	}
	if s.Bucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	if s.AccessKey == "" {
		missing = append(missing, "STORAGE_ACCESS_KEY")
	}
	if s.SecretKey == "" {
		missing = append(missing, "STORAGE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete storage config, missing %s", strings.Join(missing, ", "))
	}
	if s.PresignTTL <= 0 {
		return errors.New("STORAGE_PRESIGN_TTL must be positive")
	}
	return nil
}
